// Package deck turns a presentation document into the ordered record
// sequence the numbering and caching layers walk.
//
// Records live in a contiguous arena (Sequence.Records) and link to their
// successor by index, so traversal never needs recursion and ownership stays
// with the slice. Everything a record needs (pin, label, fingerprint) is
// derived once at construction; a descriptor missing a required
// sub-structure aborts construction with a *ConfigurationError.
package deck
