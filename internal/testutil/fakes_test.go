package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slider/internal/edits"
)

func TestFakeFetcher(t *testing.T) {
	ctx := context.Background()
	f := NewFakeFetcher()
	boom := errors.New("boom")
	f.FailOn("bad", boom)

	data, err := f.Fetch(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Image("p1"), data)

	_, err = f.Fetch(ctx, "bad")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, f.Calls("p1"))
	assert.Equal(t, 2, f.Total())
	assert.Equal(t, []string{"bad", "p1"}, f.IDs())

	f.Reset()
	assert.Zero(t, f.Total())
	_, err = f.Fetch(ctx, "bad")
	assert.Error(t, err, "failures survive Reset")
}

func TestFakeService(t *testing.T) {
	ctx := context.Background()
	s := NewFakeService()
	s.Put("doc", Deck())

	copyID, err := s.Copy(ctx, "doc", "Slider::x Deck")
	require.NoError(t, err)
	assert.Equal(t, "copy-1", copyID)

	data, err := s.Presentation(ctx, copyID)
	require.NoError(t, err)
	assert.Equal(t, Deck(), data)

	require.NoError(t, s.BatchUpdate(ctx, copyID, []edits.Request{{DeleteObject: &edits.DeleteObject{ObjectID: "x"}}}))
	require.Len(t, s.Batches(), 1)
	assert.Equal(t, copyID, s.Batches()[0].DocID)

	require.NoError(t, s.Delete(ctx, copyID))
	assert.False(t, s.Exists(copyID))
	assert.Equal(t, []string{copyID}, s.Deleted())

	assert.Error(t, s.Delete(ctx, copyID))
	assert.Error(t, s.BatchUpdate(ctx, "missing", nil))
	_, err = s.Presentation(ctx, "missing")
	assert.Error(t, err)
}
