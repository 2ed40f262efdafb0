package pipeline

import (
	"time"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/metrics"
	"github.com/roach88/slider/internal/numbering"
	"github.com/roach88/slider/internal/registry"
)

// Report describes a finished (or aborted) run. Fields are filled in as
// the run progresses, so a failed run reports how far it got.
type Report struct {
	Presentation string `json:"presentation"`
	Title        string `json:"title"`
	RunID        string `json:"run_id"`

	// CopyID is the disposable copy the artifacts were exported from.
	CopyID      string `json:"copy_id,omitempty"`
	CopyDeleted bool   `json:"copy_deleted"`

	Records   int                 `json:"records"`
	Anomalies []numbering.Anomaly `json:"anomalies,omitempty"`

	// NoteEdits and ExportEdits count the requests sent to the original
	// and to the copy.
	NoteEdits   int `json:"note_edits"`
	ExportEdits int `json:"export_edits"`

	Result   *cache.Result     `json:"-"`
	Registry registry.Registry `json:"registry,omitempty"`
	Promoted []string          `json:"promoted,omitempty"`

	// Dropped lists stale artifacts removed from new/ during promotion.
	Dropped []string `json:"dropped,omitempty"`

	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Stats converts the report into metric observations.
func (r *Report) Stats(success bool, finished time.Time) metrics.RunStats {
	s := metrics.RunStats{
		Presentation: r.Presentation,
		Records:      r.Records,
		Anomalies:    len(r.Anomalies),
		Duration:     r.Duration,
		Finished:     finished,
		Success:      success,
	}
	if r.Result != nil {
		s.Fetched = len(r.Result.Fetched)
		s.Failed = len(r.Result.Failed)
		s.Moved = len(r.Result.Moved)
		s.Missing = len(r.Result.Missing)
		s.Evicted = len(r.Result.Evicted)
		s.Kept = cache.Summary(r.Result.Decisions)[cache.Keep]
	}
	return s
}
