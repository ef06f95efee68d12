// Package services defines shared error utilities consumed by the pipeline
// and external integrations.
//
// The sentinel markers plus the Wrap helper translate failures into a
// consistent taxonomy: configuration errors abort startup, transient and
// rate-limit errors are retried with backoff, format errors fall back to the
// simplest safe file operation, and not-found is reserved for absent remote
// resources. Use these helpers when wiring new components so error handling
// stays uniform across the pipeline.
package services
