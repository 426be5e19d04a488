// Package server exposes the registry over socket.io. Every connected socket
// is one contributor: it picks a system with "join", publishes its
// "structure", "defines" and "emit_count", and receives its composed output
// as "composed" events whenever the system changes.
package server
