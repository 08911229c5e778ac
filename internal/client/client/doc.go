// Package client talks to the SessionKeeper gRPC service on behalf of the CLI.
//
// GRPCClient keeps the current access and refresh tokens in memory and,
// when a session.Repository is supplied, on disk so that a login survives
// restarts. Its unary interceptor attaches the access token to every call
// and, when a protected call fails with Unauthenticated, rotates the refresh
// token once and retries.
//
// Server status codes map onto the sentinel errors in this package:
// ErrUnauthorized, ErrNotVerified, ErrAlreadyExists, ErrInvalidInput and
// ErrUnavailable.
//
// InitDatabase and RunMigrations bootstrap the local SQLite store using the
// embedded goose migrations.
package client
