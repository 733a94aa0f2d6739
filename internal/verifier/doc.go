// Package verifier confirms published items by polling the external listing
// for the item's normalized token signature. Verification is advisory: a
// negative result never blocks an item, it only produces a warning.
package verifier
