package cache

import (
	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/registry"
)

// Action is what the reconciler does for one slide.
type Action string

const (
	// Keep leaves an unchanged slide's artifact where it is.
	Keep Action = "keep"

	// Move renames an unchanged slide's artifact to its new number.
	Move Action = "move"

	// Fetch downloads the slide into the new tier.
	Fetch Action = "fetch"

	// Missing marks an unchanged slide whose artifact is not in the
	// current tier. Nothing is done for it.
	Missing Action = "missing"
)

// Why a slide is fetched.
const (
	ReasonNew     = "new"
	ReasonChanged = "changed"
	ReasonRepair  = "missing artifact"
)

// Decision is the planned handling of one slide.
type Decision struct {
	ID     string `json:"id"`
	Action Action `json:"action"`

	// Reason explains a Fetch.
	Reason string `json:"reason,omitempty"`

	Number int64  `json:"number"`
	Label  string `json:"label,omitempty"`

	// Name is the artifact name under the slide's current number.
	Name string `json:"name"`

	// Source is the existing artifact for Keep and Move, or the expected
	// one for Missing.
	Source string `json:"source,omitempty"`

	// Tier is the directory holding Source for Keep and Move. A Move
	// renames within that tier.
	Tier string `json:"tier,omitempty"`

	// PriorNumber is the number recorded by the previous run, if any.
	PriorNumber int64 `json:"prior_number,omitempty"`
}

// PlanOptions tunes Plan.
type PlanOptions struct {
	// RepairMissing turns Missing decisions into fetches.
	RepairMissing bool
}

// Inventory lists the file names present in each tier.
type Inventory struct {
	Current []string
	New     []string
}

// Plan decides, in traversal order, what to do for every slide of a
// numbered sequence, given the previous run's registry and the names
// present in both tiers. It does not touch the filesystem.
//
// A slide is unchanged when prior holds an entry for its id with an equal
// hash. Its artifact is looked up in the new tier first, which holds the
// latest render until promoted, then in the current tier. Unchanged slides
// are never fetched unless their artifact is gone and opts.RepairMissing
// is set.
func Plan(seq *deck.Sequence, prior registry.Registry, inv Inventory, opts PlanOptions) []Decision {
	idx := newArtifactIndex(inv)
	decisions := make([]Decision, 0, seq.Len())

	for _, i := range seq.Order() {
		r := &seq.Records[i]
		d := Decision{
			ID:     r.ID,
			Number: r.Number,
			Label:  r.Label,
			Name:   Name(r.Number, r.Label),
		}

		entry, known := prior[r.ID]
		if known {
			d.PriorNumber = entry.Number
		}

		switch {
		case !known:
			d.Action, d.Reason = Fetch, ReasonNew
		case entry.Hash != r.Hash:
			d.Action, d.Reason = Fetch, ReasonChanged
		default:
			tier, src, found := idx.claim(entry.Number, r.Label)
			switch {
			case found && src == d.Name:
				d.Action, d.Source, d.Tier = Keep, src, tier
			case found:
				d.Action, d.Source, d.Tier = Move, src, tier
			case opts.RepairMissing:
				d.Action, d.Reason = Fetch, ReasonRepair
			default:
				d.Action, d.Source = Missing, Name(entry.Number, r.Label)
			}
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// artifactIndex finds prior artifacts by number. Each file can be claimed
// by one slide only.
type artifactIndex struct {
	tiers []*tierIndex
}

type tierIndex struct {
	name     string
	names    map[string]bool
	byNumber map[int64][]string
	claimed  map[string]bool
}

func newArtifactIndex(inv Inventory) *artifactIndex {
	return &artifactIndex{tiers: []*tierIndex{
		newTierIndex(NewDir, inv.New),
		newTierIndex(CurrentDir, inv.Current),
	}}
}

func newTierIndex(name string, files []string) *tierIndex {
	t := &tierIndex{
		name:     name,
		names:    make(map[string]bool, len(files)),
		byNumber: make(map[int64][]string, len(files)),
		claimed:  make(map[string]bool),
	}
	for _, f := range files {
		n, ok := ParseNumber(f)
		if !ok {
			continue
		}
		t.names[f] = true
		t.byNumber[n] = append(t.byNumber[n], f)
	}
	return t
}

// claim returns the tier and name of the artifact for a prior number. The
// new tier is searched before the current tier. Within a tier the exact
// name for label wins, then any unclaimed file with that number, which
// covers a layout renamed between runs.
func (idx *artifactIndex) claim(number int64, label string) (tier, name string, ok bool) {
	for _, t := range idx.tiers {
		if name, ok := t.claim(number, label); ok {
			return t.name, name, true
		}
	}
	return "", "", false
}

func (t *tierIndex) claim(number int64, label string) (string, bool) {
	exact := Name(number, label)
	if t.names[exact] && !t.claimed[exact] {
		t.claimed[exact] = true
		return exact, true
	}
	for _, name := range t.byNumber[number] {
		if !t.claimed[name] {
			t.claimed[name] = true
			return name, true
		}
	}
	return "", false
}

// Summary counts decisions by action.
func Summary(decisions []Decision) map[Action]int {
	out := make(map[Action]int, 4)
	for _, d := range decisions {
		out[d.Action]++
	}
	return out
}
