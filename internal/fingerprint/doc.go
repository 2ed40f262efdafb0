// Package fingerprint computes change-stable identities for slide descriptors.
//
// A descriptor is serialised with RFC 8785 style canonical JSON and hashed
// with SHA-256 under a versioned domain prefix. Fields the remote service
// regenerates on every read (one-time content delivery URLs) are removed at
// every nesting depth before hashing, so two reads of the same logical slide
// always produce the same fingerprint.
//
// Key constraints:
//   - Object keys are ordered by UTF-16 code units, never by map iteration
//   - Strings are NFC normalised, HTML characters are not escaped
//   - Numbers must arrive as json.Number (or Go integers); floats are rejected
//     because their text form is not guaranteed to round-trip
package fingerprint
