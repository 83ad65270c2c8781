package domain

import (
	"path"
	"regexp"
	"strings"
	"time"
)

type FileRecord struct {
	ID           string
	OwnerID      string
	StoredName   string
	OriginalName string
	SizeBytes    int64
	ContentType  string
	StoragePath  string
	IsPublic     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time // last overwrite
}

// OwnerPrefix is the object key prefix holding every object of ownerID.
func OwnerPrefix(ownerID string) string {
	return "user_" + ownerID + "/"
}

// StoragePath is the object key of storedName.
func StoragePath(ownerID, storedName string) string {
	return OwnerPrefix(ownerID) + storedName
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// NormalizeFilename strips directories and replaces every character outside
// [A-Za-z0-9._-] with an underscore. Names that end up empty or made only of
// dots are rejected.
func NormalizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "/" {
		return "", ErrInvalidFilename
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if strings.Trim(name, ".") == "" {
		return "", ErrInvalidFilename
	}
	return name, nil
}

// Extension returns the lower-cased extension without the dot.
func Extension(name string) string {
	ext := path.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Stem returns name without its final extension.
func Stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
