package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/edits"
	"github.com/roach88/slider/internal/metrics"
	"github.com/roach88/slider/internal/numbering"
	"github.com/roach88/slider/internal/registry"
)

// CopyPrefix starts the name of every disposable copy.
const CopyPrefix = "Slider::"

// deleteTimeout bounds copy deletion, which runs even after cancellation.
const deleteTimeout = 30 * time.Second

// Source reads presentation documents as raw JSON.
type Source interface {
	Presentation(ctx context.Context, id string) ([]byte, error)
}

// Editor applies a batch of edit requests to one document.
type Editor interface {
	BatchUpdate(ctx context.Context, id string, reqs []edits.Request) error
}

// Copier creates and removes document copies.
type Copier interface {
	Copy(ctx context.Context, id, name string) (string, error)
	Delete(ctx context.Context, id string) error
}

// ExporterFunc returns the artifact fetcher for a document.
type ExporterFunc func(docID string) cache.Fetcher

// Config holds the per-run settings.
type Config struct {
	StoreDir string
	Registry string // registry backend, see registry.Open

	Concurrency   int
	RepairMissing bool
	RetainFailed  bool

	// Promote moves new/ into current/ after the registry is saved.
	Promote bool

	// MetricsFile receives the Prometheus textfile when metrics are on.
	MetricsFile string
}

// Runner executes runs against one set of collaborators.
type Runner struct {
	source   Source
	editor   Editor
	copier   Copier
	exporter ExporterFunc
	cfg      Config

	ids     IDGenerator
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithIDGenerator replaces the UUID generator used for copy names.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// Service is satisfied by a client implementing every remote operation.
type Service interface {
	Source
	Editor
	Copier
}

// New creates a Runner. svc provides the document operations and exporter
// the page fetcher for the copy.
func New(svc Service, exporter ExporterFunc, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		source:   svc,
		editor:   svc,
		copier:   svc,
		exporter: exporter,
		cfg:      cfg,
		ids:      UUIDGenerator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes the presentation id end to end.
//
// Configuration errors in either document, and failed reads, edits, copies
// and registry writes abort the run. Individual artifact failures do not;
// they are listed in Report.Result. The copy is deleted whenever it was
// created, including after an error.
func (r *Runner) Run(ctx context.Context, id string) (rep *Report, err error) {
	rep = &Report{
		Presentation: id,
		RunID:        r.ids.Generate(),
		Started:      r.now(),
	}
	log := r.logger.With("presentation", id)

	defer func() {
		finished := r.now()
		rep.Duration = finished.Sub(rep.Started)
		r.observe(rep, err == nil, finished, log)
	}()

	log.Info("reading presentation")
	pres, seq, err := r.load(ctx, id)
	if err != nil {
		return rep, err
	}
	rep.Title = pres.Title
	rep.Records = seq.Len()

	log.Info("numbering slides", "records", seq.Len())
	numbering.Assign(seq)
	rep.Anomalies = numbering.Check(seq)
	for _, a := range rep.Anomalies {
		log.Warn("numbering anomaly", "id", a.ID, "number", a.Number, "kind", string(a.Kind), "previous", a.Previous)
	}

	notes := edits.NumberNotes(seq)
	rep.NoteEdits = len(notes)
	log.Info("writing slide numbers", "requests", len(notes))
	if err := r.submit(ctx, id, notes); err != nil {
		return rep, err
	}

	name := CopyPrefix + rep.RunID + " " + pres.Title
	log.Info("creating temporary presentation", "name", name)
	copyID, err := r.copier.Copy(ctx, id, name)
	if err != nil {
		return rep, fmt.Errorf("copy presentation %s: %w", id, err)
	}
	rep.CopyID = copyID
	defer func() {
		rep.CopyDeleted = r.deleteCopy(ctx, copyID, log)
	}()

	copyPres, copySeq, err := r.load(ctx, copyID)
	if err != nil {
		return rep, err
	}
	if err := copySeq.AdoptNumbers(seq); err != nil {
		return rep, fmt.Errorf("copy %s: %w", copyID, err)
	}

	prep := edits.PrepareExport(copyPres, copySeq)
	rep.ExportEdits = len(prep)
	log.Info("preparing temporary presentation for export", "copy", copyID, "requests", len(prep))
	if err := r.submit(ctx, copyID, prep); err != nil {
		return rep, err
	}

	tiers := cache.Tiers{Root: r.cfg.StoreDir}
	if err := tiers.Ensure(); err != nil {
		return rep, err
	}
	store, err := registry.Open(r.cfg.StoreDir, r.cfg.Registry)
	if err != nil {
		return rep, fmt.Errorf("open registry: %w", err)
	}
	defer store.Close()

	prior, err := store.Load(ctx)
	if err != nil {
		return rep, err
	}

	log.Info("reconciling artifacts", "dir", r.cfg.StoreDir, "known", len(prior))
	rec := cache.NewReconciler(r.cfg.StoreDir, r.exporter(copyID), cache.Options{
		Concurrency:   r.cfg.Concurrency,
		RepairMissing: r.cfg.RepairMissing,
		Logger:        log,
	})
	res, err := rec.Reconcile(ctx, copySeq, prior)
	rep.Result = res
	if err != nil {
		return rep, fmt.Errorf("reconcile: %w", err)
	}

	// A failed move leaves the artifact under its prior number, which the
	// registry must keep pointing at so the move is retried.
	next := registry.Snapshot(copySeq)
	registry.Retain(next, prior, res.FailedIDs(cache.Move))
	if r.cfg.RetainFailed {
		registry.Retain(next, prior, res.FailedIDs())
	}
	log.Info("saving status registry", "entries", len(next))
	if err := store.Save(ctx, next); err != nil {
		return rep, err
	}
	rep.Registry = next

	if r.cfg.Promote {
		promoted, dropped, err := cache.Promote(tiers, next.Numbers())
		rep.Promoted, rep.Dropped = promoted, dropped
		for _, name := range dropped {
			log.Info("dropped stale artifact", "path", filepath.Join(tiers.New(), name))
		}
		if err != nil {
			return rep, fmt.Errorf("promote: %w", err)
		}
		log.Info("promoted artifacts", "count", len(promoted), "dropped", len(dropped))
	}

	log.Info("run complete",
		"fetched", len(res.Fetched),
		"moved", len(res.Moved),
		"failed", len(res.Failed),
		"evicted", len(res.Evicted))
	return rep, nil
}

// load reads and parses one document.
func (r *Runner) load(ctx context.Context, id string) (*deck.Presentation, *deck.Sequence, error) {
	data, err := r.source.Presentation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("read presentation %s: %w", id, err)
	}
	pres, seq, err := deck.Load(data)
	if err != nil {
		return nil, nil, fmt.Errorf("presentation %s: %w", id, err)
	}
	return pres, seq, nil
}

// submit sends a non-empty batch.
func (r *Runner) submit(ctx context.Context, id string, reqs []edits.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	if err := r.editor.BatchUpdate(ctx, id, reqs); err != nil {
		return fmt.Errorf("update presentation %s: %w", id, err)
	}
	return nil
}

// deleteCopy removes the temporary presentation. Failure leaves a stray
// copy behind but does not fail the run.
func (r *Runner) deleteCopy(ctx context.Context, copyID string, log *slog.Logger) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()

	log.Info("deleting temporary presentation", "copy", copyID)
	if err := r.copier.Delete(ctx, copyID); err != nil {
		log.Warn("failed to delete temporary presentation", "copy", copyID, "error", err)
		return false
	}
	return true
}

func (r *Runner) observe(rep *Report, success bool, finished time.Time, log *slog.Logger) {
	if r.metrics == nil {
		return
	}
	r.metrics.Observe(rep.Stats(success, finished))
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
		log.Warn("failed to write metrics", "path", r.cfg.MetricsFile, "error", err)
	}
}
