// Package app contains the core application logic. It loads contributor
// declarations, composes them in a registry and renders or serves the result,
// decoupled from any specific entrypoint like a CLI.
package app
