// Package memory provides in-process repository implementations for the
// development profile and tests. Each repository guards its map with a
// single mutex, which also makes refresh token Replace atomic.
package memory
