// Package numbering assigns sparse, gap-tolerant sequence numbers to a deck.
//
// Pinned slides keep the number the operator wrote into their notes.
// Unpinned slides between two anchors are spread toward the next anchor,
// and unpinned slides after the last anchor are extrapolated in steps of
// Step so that later insertions have room:
//
//	pins:    -     100    -
//	numbers: 50    100    10100
//
// An all-unpinned deck of n slides is numbered Step, 2*Step, ... n*Step.
//
// The engine never corrects its own output. Check reports duplicate or
// decreasing numbers, which arise from operator pins that go backwards or
// from many unpinned slides squeezed between two close pins.
package numbering
