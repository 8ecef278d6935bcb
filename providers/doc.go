// Package providers contains the shared HTTP plumbing and config helpers used
// by the built-in adapters under providers/vckit, providers/pyx and
// providers/s3.
package providers
