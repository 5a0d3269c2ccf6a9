// Package app is the application layer, the only component that references
// multiple domain components. It orchestrates all use cases and is the sole
// producer of broadcast events: every publish happens after the underlying
// write has committed.
package app
