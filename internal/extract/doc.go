// Package extract holds the field helpers adapters use to read listing nodes:
// locale-aware number parsing and selector/attribute lookups with typed
// failures.
package extract
