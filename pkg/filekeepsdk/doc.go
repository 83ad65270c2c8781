/*
Package filekeepsdk is a Go client for the filekeep file storage service.

SDKClient covers the public endpoints: health probes, registration and
login. Login returns a Session, which carries the access token and exposes
the authenticated file, account and admin operations.

	client := filekeepsdk.NewSDKClient("http://localhost:8080")

	_, err := client.Register(ctx, filekeepsdk.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct horse",
	})

	session, err := client.Login(ctx, "alice@example.com", "correct horse")
	file, err := session.Upload(ctx, "tower.ifc", bytes.NewReader(model))
	usage, err := session.Usage(ctx)

The client keeps a cookie jar and handles the service's double-submit CSRF
token for the unauthenticated POST endpoints. Session requests use the
bearer token and are exempt from CSRF.

Errors returned by the service are *APIError values; compare the Code field
against the ErrorCode constants, or use errors.As.
*/
package filekeepsdk
