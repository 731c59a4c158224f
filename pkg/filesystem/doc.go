// Package filesystem provides the OS implementation of the types.FS
// interface. Components take an FS so the move transaction, symlink
// resolution and discovery can run against an in-memory filesystem in
// tests.
package filesystem
