// Package textutil provides token normalization helpers shared by the
// verifier signature builder and filename-derived identifiers.
package textutil
