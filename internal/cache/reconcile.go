package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/slider/internal/atomicfile"
	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/registry"
)

// Fetcher downloads the rendered image of one page.
type Fetcher interface {
	Fetch(ctx context.Context, pageID string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, pageID string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, pageID string) ([]byte, error) {
	return f(ctx, pageID)
}

// Failure records a slide whose artifact could not be produced. The run
// carries on without it.
type Failure struct {
	ID   string
	Op   Action
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s for slide %q: %v", f.Op, f.Path, f.ID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result reports what a reconciliation did.
type Result struct {
	Decisions []Decision

	// Fetched lists ids written to the new tier, in traversal order.
	Fetched []string

	// Moved lists ids whose artifact was renamed.
	Moved []string

	// Missing lists unchanged ids with no artifact in the current tier.
	Missing []string

	// Failed lists fetches and moves that did not complete.
	Failed []Failure

	// Evicted lists names removed from the current tier.
	Evicted []string
}

// FailedIDs returns the ids of failed slides, limited to the given
// operations when any are named.
func (r *Result) FailedIDs(ops ...Action) []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		if len(ops) > 0 && !slices.Contains(ops, f.Op) {
			continue
		}
		ids = append(ids, f.ID)
	}
	return ids
}

// Options configures a Reconciler.
type Options struct {
	// Concurrency bounds parallel fetches. Values below 1 mean 1.
	Concurrency int

	// RepairMissing fetches unchanged slides whose artifact is gone.
	RepairMissing bool

	Logger *slog.Logger
}

// Reconciler applies plans to a store directory. It is the only writer of
// both tiers during a run.
type Reconciler struct {
	tiers   Tiers
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewReconciler returns a reconciler for the store directory root.
func NewReconciler(root string, fetcher Fetcher, opts Options) *Reconciler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		tiers:   Tiers{Root: root},
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Reconcile brings the store directory in line with a numbered sequence:
// renames unchanged artifacts, fetches changed and new slides, then evicts
// orphans from the current tier.
//
// Individual fetch or rename failures are logged and reported in the
// Result; only filesystem errors on the tiers themselves and context
// cancellation abort the run.
func (r *Reconciler) Reconcile(ctx context.Context, seq *deck.Sequence, prior registry.Registry) (*Result, error) {
	if err := r.tiers.Ensure(); err != nil {
		return nil, err
	}

	var inv Inventory
	var err error
	if inv.Current, err = List(r.tiers.Current()); err != nil {
		return nil, err
	}
	if inv.New, err = List(r.tiers.New()); err != nil {
		return nil, err
	}

	res := &Result{
		Decisions: Plan(seq, prior, inv, PlanOptions{RepairMissing: r.opts.RepairMissing}),
	}

	for _, d := range res.Decisions {
		switch d.Action {
		case Keep:
			r.logger.Debug("artifact unchanged", "id", d.ID, "number", d.Number, "path", d.Name)
		case Missing:
			res.Missing = append(res.Missing, d.ID)
			r.logger.Warn("artifact missing for unchanged slide",
				"id", d.ID, "number", d.Number,
				"path", filepath.Join(r.tiers.Current(), d.Source))
		}
	}

	restored := r.applyMoves(res)

	if err := r.fetchAll(ctx, res); err != nil {
		return res, err
	}

	// An artifact whose move failed stays under its old number until the
	// move is retried.
	live := seq.LiveNumbers()
	for _, n := range restored {
		live[n] = true
	}
	evicted, err := Evict(r.tiers.Current(), live)
	if err != nil {
		return res, err
	}
	res.Evicted = evicted
	for _, name := range evicted {
		r.logger.Info("evicted stale artifact", "path", filepath.Join(r.tiers.Current(), name))
	}

	return res, nil
}

// applyMoves renames in two phases through a hidden staging directory,
// so that slides swapping numbers never overwrite each other's artifacts.
// A move that cannot complete puts its artifact back under the source name
// when that name is still free; the numbers of restored artifacts are
// returned.
func (r *Reconciler) applyMoves(res *Result) []int64 {
	type staged struct {
		d     Decision
		dir   string
		stage string
	}
	var (
		pending  []staged
		restored []int64
		stages   = make(map[string]string)
	)

	for _, d := range res.Decisions {
		if d.Action != Move {
			continue
		}
		dir := filepath.Join(r.tiers.Root, d.Tier)
		src := filepath.Join(dir, d.Source)

		stage, ok := stages[dir]
		if !ok {
			var err error
			if stage, err = os.MkdirTemp(dir, ".moves-"); err != nil {
				r.fail(res, Failure{ID: d.ID, Op: Move, Path: src, Err: err})
				continue
			}
			stages[dir] = stage
		}

		if err := os.Rename(src, filepath.Join(stage, d.Source)); err != nil {
			r.fail(res, Failure{ID: d.ID, Op: Move, Path: src, Err: err})
			continue
		}
		pending = append(pending, staged{d: d, dir: dir, stage: stage})
	}

	for _, s := range pending {
		dst := filepath.Join(s.dir, s.d.Name)
		if err := os.Rename(filepath.Join(s.stage, s.d.Source), dst); err != nil {
			r.fail(res, Failure{ID: s.d.ID, Op: Move, Path: dst, Err: err})
			if r.restore(s.dir, s.stage, s.d.Source) {
				if n, ok := ParseNumber(s.d.Source); ok {
					restored = append(restored, n)
				}
			}
			continue
		}
		res.Moved = append(res.Moved, s.d.ID)
		r.logger.Info("renamed artifact", "id", s.d.ID, "from", s.d.Source, "to", s.d.Name)
	}

	for _, stage := range stages {
		// Fails while a staged artifact could not be restored.
		_ = os.Remove(stage)
	}
	return restored
}

// restore renames a staged artifact back to its source name. It leaves the
// artifact in the staging directory when the source name has been taken by
// another move.
func (r *Reconciler) restore(dir, stage, source string) bool {
	staged := filepath.Join(stage, source)
	src := filepath.Join(dir, source)
	if _, err := os.Lstat(src); !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("artifact left in staging directory", "path", staged)
		return false
	}
	if err := os.Rename(staged, src); err != nil {
		r.logger.Warn("artifact left in staging directory", "path", staged, "error", err)
		return false
	}
	return true
}

// fetchAll downloads every Fetch decision with bounded parallelism.
// Writes to the same artifact name are serialised.
func (r *Reconciler) fetchAll(ctx context.Context, res *Result) error {
	var (
		mu      sync.Mutex
		fetched = make(map[string]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, d := range res.Decisions {
		if d.Action != Fetch {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			path := filepath.Join(r.tiers.New(), d.Name)

			data, err := r.fetcher.Fetch(gctx, d.ID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				r.fail(res, Failure{ID: d.ID, Op: Fetch, Path: path, Err: err})
				mu.Unlock()
				return nil
			}

			if err := r.write(path, data); err != nil {
				mu.Lock()
				r.fail(res, Failure{ID: d.ID, Op: Fetch, Path: path, Err: err})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			fetched[d.ID] = true
			mu.Unlock()
			r.logger.Info("fetched artifact", "id", d.ID, "number", d.Number, "reason", d.Reason, "path", path)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for _, d := range res.Decisions {
		if fetched[d.ID] {
			res.Fetched = append(res.Fetched, d.ID)
		}
	}
	order := make(map[string]int, len(res.Decisions))
	for i, d := range res.Decisions {
		order[d.ID] = i
	}
	slices.SortStableFunc(res.Failed, func(a, b Failure) int {
		return order[a.ID] - order[b.ID]
	})

	if err != nil {
		return fmt.Errorf("fetch artifacts: %w", err)
	}
	return nil
}

func (r *Reconciler) write(path string, data []byte) error {
	lock := r.lockFor(path)
	lock.Lock()
	defer lock.Unlock()
	return atomicfile.WriteFile(path, data, 0o644)
}

func (r *Reconciler) lockFor(path string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[path]
	if !ok {
		l = &sync.Mutex{}
		r.locks[path] = l
	}
	return l
}

func (r *Reconciler) fail(res *Result, f Failure) {
	res.Failed = append(res.Failed, f)
	r.logger.Warn("could not produce artifact", "id", f.ID, "op", string(f.Op), "path", f.Path, "error", f.Err)
}
