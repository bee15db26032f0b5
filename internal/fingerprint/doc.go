// Package fingerprint computes content-addressed keys for generated
// combinations.
//
// A key is the SHA-256 of the combination's canonical JSON, prefixed with a
// versioned domain string and a null byte. Canonical JSON sorts object keys
// by UTF-16 code units, NFC-normalizes strings and escapes only what JSON
// requires, so two placements share a key exactly when they assign the same
// values, regardless of assignment order or Unicode composition.
//
// Keys are recorded with every placement in the run log, which lets
// history queries find every run that produced a given combination.
package fingerprint
