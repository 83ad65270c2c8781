package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for new hashes.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// Upper bounds accepted when reading a stored hash, so a tampered row cannot
// make verification allocate unbounded memory.
const (
	maxMemory     = 256 * 1024
	maxIterations = 16
	maxKeyLength  = 128
)

var ErrMalformedHash = errors.New("cryptox: malformed hash")

// Vault hashes and verifies passwords with Argon2id in PHC string format.
// The pepper is appended to every password and is never stored with the hash.
type Vault struct {
	pepper string

	decoyOnce sync.Once
	decoy     string
}

func NewVault(pepper string) *Vault {
	return &Vault{pepper: pepper}
}

// Hash returns $argon2id$v=19$m=..,t=..,p=..$salt$hash with a fresh salt.
func (v *Vault) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password+v.pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify reports whether password matches encoded. Anything unparseable is a
// mismatch; Verify never panics.
func (v *Vault) Verify(password, encoded string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return v.compare(password, encoded) == nil
}

// Decoy spends the same work as a real verification against a throwaway hash.
// Login calls it for unknown accounts so response time does not reveal
// whether an email is registered.
func (v *Vault) Decoy(password string) {
	v.decoyOnce.Do(func() {
		v.decoy, _ = v.Hash("decoy")
	})
	_ = v.Verify(password, v.decoy)
}

func (v *Vault) compare(password, encoded string) error {
	p, err := parsePHC(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+v.pepper),
		p.salt,
		p.iterations,
		p.memory,
		p.parallelism,
		uint32(len(p.hash)), // #nosec G115 -- bounded by maxKeyLength
	)

	if subtle.ConstantTimeCompare(computed, p.hash) != 1 {
		return errors.New("cryptox: password mismatch")
	}
	return nil
}

type phc struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// parsePHC splits ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash].
func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phc{}, fmt.Errorf("%w: expected 6 fields", ErrMalformedHash)
	}
	if parts[1] != "argon2id" {
		return phc{}, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}
	if parts[2] != "v=19" {
		return phc{}, fmt.Errorf("%w: unsupported version", ErrMalformedHash)
	}

	var p phc
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return phc{}, fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if p.memory == 0 || p.memory > maxMemory ||
		p.iterations == 0 || p.iterations > maxIterations ||
		p.parallelism == 0 {
		return phc{}, fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return phc{}, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if p.hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5]); err != nil ||
		len(p.hash) == 0 || len(p.hash) > maxKeyLength {
		return phc{}, fmt.Errorf("%w: hash", ErrMalformedHash)
	}

	return p, nil
}
