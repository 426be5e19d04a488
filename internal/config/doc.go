// Package config defines the format-agnostic description of a composition:
// the systems to create and the contributors to bind to them, plus the
// Loader interface that concrete formats implement.
//
// The HCL implementation lives in the hcl_adapter package.
package config
