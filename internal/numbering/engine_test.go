package numbering

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slider/internal/deck"
)

func pin(n int64) *int64 {
	return &n
}

// chain builds a linked sequence with ids s0, s1, ... and the given pins.
func chain(pins ...*int64) *deck.Sequence {
	seq := &deck.Sequence{Head: deck.NoNext}
	for i, p := range pins {
		seq.Records = append(seq.Records, deck.Record{
			ID:   fmt.Sprintf("s%d", i),
			Pin:  p,
			Next: deck.NoNext,
		})
		if i > 0 {
			seq.Records[i-1].Next = i
		}
	}
	if len(pins) > 0 {
		seq.Head = 0
	}
	return seq
}

func numbers(seq *deck.Sequence) []int64 {
	out := make([]int64, 0, len(seq.Records))
	for _, i := range seq.Order() {
		out = append(out, seq.Records[i].Number)
	}
	return out
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name string
		pins []*int64
		want []int64
	}{
		{"single unpinned", []*int64{nil}, []int64{10000}},
		{"all unpinned", []*int64{nil, nil, nil, nil}, []int64{10000, 20000, 30000, 40000}},
		{"pinned middle", []*int64{nil, pin(100), nil}, []int64{50, 100, 10100}},
		{"unpinned before pin", []*int64{nil, pin(5000)}, []int64{2500, 5000}},
		{"pinned last keeps pin", []*int64{nil, nil, pin(300)}, []int64{100, 200, 300}},
		{"single pinned", []*int64{pin(42)}, []int64{42}},
		{"adjacent pins", []*int64{pin(10), pin(20)}, []int64{10, 20}},
		{"tail after pin", []*int64{pin(5), nil, nil}, []int64{5, 10005, 20005}},
		{"pin zero counts", []*int64{pin(0), nil}, []int64{0, 10000}},
		{"two runs", []*int64{nil, pin(1000), nil, nil, pin(4000)}, []int64{500, 1000, 2000, 3000, 4000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := chain(tt.pins...)
			Assign(seq)
			assert.Equal(t, tt.want, numbers(seq))
			for _, r := range seq.Records {
				assert.True(t, r.Numbered, "record %s numbered", r.ID)
			}
		})
	}
}

func TestAssignRoundsHalfToEven(t *testing.T) {
	// 0 + 5/2 = 2.5 rounds down to the even neighbour.
	seq := chain(nil, pin(5))
	Assign(seq)
	assert.Equal(t, []int64{2, 5}, numbers(seq))

	// 0 + 7/2 = 3.5 rounds up to the even neighbour.
	seq = chain(nil, pin(7))
	Assign(seq)
	assert.Equal(t, []int64{4, 7}, numbers(seq))
}

func TestAssignPinnedKeepExactValue(t *testing.T) {
	seq := chain(pin(7), nil, pin(3), nil)
	Assign(seq)

	assert.Equal(t, int64(7), seq.Records[0].Number)
	assert.Equal(t, int64(3), seq.Records[2].Number)
}

func TestAssignEmpty(t *testing.T) {
	seq := chain()
	assert.NotPanics(t, func() { Assign(seq) })
	assert.Empty(t, numbers(seq))
}

func TestAssignNonDecreasingWithoutBackwardPins(t *testing.T) {
	seq := chain(nil, nil, pin(900), nil, nil, nil, pin(100000), nil, nil)
	Assign(seq)

	got := numbers(seq)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1], "position %d", i)
	}
	assert.Empty(t, Check(seq))
}

func TestAssignLongDeck(t *testing.T) {
	const n = 100000
	seq := chain(make([]*int64, n)...)

	Assign(seq)

	got := numbers(seq)
	require.Len(t, got, n)
	assert.Equal(t, Step, got[0])
	assert.Equal(t, Step*n, got[n-1])
}

func TestAssignFollowsLinks(t *testing.T) {
	// Arena order differs from traversal order: 2 -> 0 -> 1.
	seq := &deck.Sequence{
		Head: 2,
		Records: []deck.Record{
			{ID: "b", Pin: pin(100), Next: 1},
			{ID: "c", Next: deck.NoNext},
			{ID: "a", Next: 0},
		},
	}

	Assign(seq)

	assert.Equal(t, int64(50), seq.Records[2].Number)
	assert.Equal(t, int64(100), seq.Records[0].Number)
	assert.Equal(t, int64(10100), seq.Records[1].Number)
}

func TestAssignLargestPin(t *testing.T) {
	seq := chain(nil, pin(deck.MaxPin), nil, nil)
	Assign(seq)

	assert.Equal(t, []int64{deck.MaxPin / 2, deck.MaxPin, deck.MaxPin + Step, deck.MaxPin + 2*Step}, numbers(seq))
	assert.Empty(t, Check(seq))
}
