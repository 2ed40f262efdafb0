package numbering

import (
	"math"

	"github.com/roach88/slider/internal/deck"
)

// Step is the gap left after the last anchor for each trailing unpinned slide.
const Step int64 = 10000

// anchor is what a record inherits from its predecessor: the number of the
// last pin (0 at the head) and how many unpinned records were passed since.
type anchor struct {
	start     int64
	iteration int64
}

// Assign numbers every record of seq in place.
//
// The walk is iterative. A forward pass derives each record's inherited
// context; a backward pass resolves numbers, so every record sees its
// successor's final number before computing its own.
func Assign(seq *deck.Sequence) {
	order := seq.Order()
	if len(order) == 0 {
		return
	}

	inherited := make([]anchor, len(order))
	for pos := 1; pos < len(order); pos++ {
		prev := &seq.Records[order[pos-1]]
		if prev.Pinned() {
			inherited[pos] = anchor{start: *prev.Pin}
			continue
		}
		inherited[pos] = anchor{
			start:     inherited[pos-1].start,
			iteration: inherited[pos-1].iteration + 1,
		}
	}

	last := len(order) - 1
	for pos := last; pos >= 0; pos-- {
		r := &seq.Records[order[pos]]
		a := inherited[pos]

		switch {
		case r.Pinned():
			r.Number = *r.Pin
		case pos == last:
			r.Number = a.start + Step*(a.iteration+1)
		default:
			next := seq.Records[order[pos+1]].Number
			r.Number = interpolate(a, next)
		}
		r.Numbered = true
	}
}

// interpolate weights a record toward next the further it sits from the
// anchor: start + (next-start)/(k+2)*(k+1), rounded half to even.
func interpolate(a anchor, next int64) int64 {
	start := float64(a.start)
	k := float64(a.iteration)
	v := start + (float64(next-a.start)/(k+2))*(k+1)
	return int64(math.RoundToEven(v))
}
