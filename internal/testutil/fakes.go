package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/slider/internal/edits"
)

// Image returns the bytes FakeFetcher serves for a page.
func Image(pageID string) []byte {
	return []byte("PNG:" + pageID)
}

// FakeFetcher serves Image(pageID) for every page and counts calls.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]error
}

// NewFakeFetcher creates a fetcher with no failures configured.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// FailOn makes every fetch of pageID return err. A nil err clears it.
func (f *FakeFetcher) FailOn(pageID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, pageID)
		return
	}
	f.failures[pageID] = err
}

// Fetch implements the cache fetcher contract.
func (f *FakeFetcher) Fetch(ctx context.Context, pageID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[pageID]++
	if err, ok := f.failures[pageID]; ok {
		return nil, err
	}
	return Image(pageID), nil
}

// Calls returns how often pageID was fetched.
func (f *FakeFetcher) Calls(pageID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[pageID]
}

// Total returns the number of fetch calls across all pages.
func (f *FakeFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// IDs returns the sorted set of fetched page ids.
func (f *FakeFetcher) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.calls))
	for id := range f.calls {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reset forgets recorded calls. Configured failures stay.
func (f *FakeFetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

// Batch is one recorded batchUpdate call.
type Batch struct {
	DocID    string
	Requests []edits.Request
}

// Copy is one recorded copy call.
type Copy struct {
	SourceID string
	CopyID   string
	Name     string
}

// FakeService stands in for the presentation and file services: it serves
// stored documents, records edit batches, and copies and deletes documents.
// Edits are recorded but not applied.
type FakeService struct {
	mu      sync.Mutex
	docs    map[string][]byte
	batches []Batch
	copies  []Copy
	deleted []string
	ids     *SequentialIDGenerator

	// Errors returned by the corresponding calls when set.
	ReadErr   error
	EditErr   error
	CopyErr   error
	DeleteErr error
}

// NewFakeService creates an empty service. Copies get ids copy-1, copy-2, ...
func NewFakeService() *FakeService {
	return &FakeService{
		docs: make(map[string][]byte),
		ids:  NewSequentialIDGenerator("copy"),
	}
}

// Put stores a document.
func (s *FakeService) Put(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = data
}

// Exists reports whether a document is stored.
func (s *FakeService) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[id]
	return ok
}

// Presentation returns a stored document.
func (s *FakeService) Presentation(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	data, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("presentation %q not found", id)
	}
	return data, nil
}

// BatchUpdate records a batch against an existing document.
func (s *FakeService) BatchUpdate(ctx context.Context, id string, reqs []edits.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EditErr != nil {
		return s.EditErr
	}
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("presentation %q not found", id)
	}
	s.batches = append(s.batches, Batch{DocID: id, Requests: reqs})
	return nil
}

// Copy duplicates a stored document under a fresh id.
func (s *FakeService) Copy(ctx context.Context, id, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CopyErr != nil {
		return "", s.CopyErr
	}
	data, ok := s.docs[id]
	if !ok {
		return "", fmt.Errorf("file %q not found", id)
	}
	copyID := s.ids.Generate()
	s.docs[copyID] = data
	s.copies = append(s.copies, Copy{SourceID: id, CopyID: copyID, Name: name})
	return copyID, nil
}

// Delete removes a stored document.
func (s *FakeService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("file %q not found", id)
	}
	delete(s.docs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

// Batches returns the recorded batches in call order.
func (s *FakeService) Batches() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.batches)
}

// Copies returns the recorded copies in call order.
func (s *FakeService) Copies() []Copy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.copies)
}

// Deleted returns the ids deleted so far.
func (s *FakeService) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deleted)
}
