package numbering

import (
	"fmt"

	"github.com/roach88/slider/internal/deck"
)

// AnomalyKind classifies a numbering anomaly.
type AnomalyKind string

const (
	// Duplicate means a record shares its number with its predecessor.
	Duplicate AnomalyKind = "duplicate"

	// Decreasing means a record's number is lower than its predecessor's.
	Decreasing AnomalyKind = "decreasing"
)

// Anomaly describes one out-of-order pair of adjacent records.
type Anomaly struct {
	Kind     AnomalyKind `json:"kind"`
	ID       string      `json:"id"`
	Number   int64       `json:"number"`
	PrevID   string      `json:"prev_id"`
	Previous int64       `json:"previous"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s number %d on slide %q (after %q = %d)", a.Kind, a.Number, a.ID, a.PrevID, a.Previous)
}

// Check walks a numbered sequence and reports adjacent pairs that are not
// strictly increasing. Nothing is modified.
//
// Duplicates collide on disk: two slides with the same number map to the
// same cache filename unless their labels differ.
func Check(seq *deck.Sequence) []Anomaly {
	var out []Anomaly
	order := seq.Order()
	for pos := 1; pos < len(order); pos++ {
		prev := &seq.Records[order[pos-1]]
		cur := &seq.Records[order[pos]]
		if !prev.Numbered || !cur.Numbered {
			continue
		}

		var kind AnomalyKind
		switch {
		case cur.Number == prev.Number:
			kind = Duplicate
		case cur.Number < prev.Number:
			kind = Decreasing
		default:
			continue
		}
		out = append(out, Anomaly{
			Kind:     kind,
			ID:       cur.ID,
			Number:   cur.Number,
			PrevID:   prev.ID,
			Previous: prev.Number,
		})
	}
	return out
}
