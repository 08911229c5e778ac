// Package cli provides the interactive SessionKeeper command-line client.
//
// App wires configuration, the local session database and the gRPC client,
// then runs a small REPL:
//
//   - register: create an account (email, optional name, password)
//   - verify:   confirm the email using the emailed link
//   - login / logout
//   - whoami:   show the authenticated account
//
// A login is kept in the local SQLite file, so it survives restarts until
// the refresh token expires or the user logs out. A background watcher
// pings the server and shows online/offline in the prompt.
package cli
