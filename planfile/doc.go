// Package planfile stores resolved build plans.
//
// A plan file records the normalized platform, the build plan and the
// backend decision, plus a BLAKE3 fingerprint computed over their Core
// Deterministic CBOR encoding (RFC 8949 §4.2). Identical inputs always give
// bit-identical fingerprints, so a stored plan can be checked against a
// fresh resolution with Verify.
//
// Plan files are written as indented JSON with a fixed field order, or as
// deterministic CBOR.
package planfile
