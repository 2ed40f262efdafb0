package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSlide prefixes every slide fingerprint.
// The version suffix allows the algorithm to change without colliding with
// fingerprints persisted by older registries.
const DomainSlide = "slider/slide/v1"

// VolatileFields lists descriptor keys that change on every read of an
// otherwise identical slide. They are dropped wherever they appear.
var VolatileFields = []string{"contentUrl"}

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the bytes a slide fingerprint is computed over: the
// canonical JSON of raw with every VolatileFields key removed.
func Canonical(raw map[string]any) ([]byte, error) {
	omit := make(map[string]bool, len(VolatileFields))
	for _, f := range VolatileFields {
		omit[f] = true
	}
	return encoder{omit: omit}.marshal(raw)
}

// Slide computes the fingerprint of a raw slide descriptor.
//
// The result is stable across reads of the same logical content: key order,
// Unicode normalisation form and one-time content URLs do not affect it.
// Any other change (notes text, layout reference, element geometry) does.
func Slide(raw map[string]any) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("fingerprint: nil descriptor")
	}
	canonical, err := Canonical(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainSlide, canonical), nil
}

// MustSlide is like Slide but panics on error.
// Use only in tests or when the descriptor is known to be valid.
func MustSlide(raw map[string]any) string {
	h, err := Slide(raw)
	if err != nil {
		panic(err)
	}
	return h
}
