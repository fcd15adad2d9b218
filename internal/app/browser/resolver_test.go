package browser

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/discographic/internal/domain/song"
)

func titles(items []song.Item) []string {
	result := make([]string, len(items))
	for i, it := range items {
		result[i] = it.Title()
	}
	return result
}

func allResolved(items []song.Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.IsResolved() {
			return false
		}
	}
	return true
}

func TestResolve_QueueItems(t *testing.T) {
	c, cat, _ := loadedController(t)

	require.NoError(t, c.LoadQueueItem(0))
	c.Wait()

	queue := c.Snapshot().Queue
	require.Len(t, queue, 3)
	for i, it := range queue {
		resolved, ok := it.(song.Resolved)
		require.True(t, ok, "item %d", i)
		assert.Equal(t, cat.metas[it.MetaFile()].Title, resolved.Title())
		assert.Equal(t, "3.0 MB (3000000)", resolved.ShowSize)
		assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", resolved.LastModified)
	}
	assert.Equal(t, 3, cat.headCalls)
}

func TestResolve_BrowseItemsSkipHead(t *testing.T) {
	c, cat, _ := loadedController(t)

	require.NoError(t, c.BrowseInto(0))
	require.NoError(t, c.BrowseInto(0))
	c.Wait()

	items := c.Snapshot().Items
	assert.Equal(t, []string{"Song a1", "Song a2", "Song a3"}, titles(items))
	for _, it := range items {
		assert.Empty(t, it.(song.Resolved).LastModified)
	}
	assert.Zero(t, cat.headCalls)
}

func TestResolve_FailureLeavesPlaceholder(t *testing.T) {
	cat := newFakeCatalog()
	cat.metaErrs["a2.json"] = errors.New("404 not found")
	c := newTestController(t, cat, newFakeDevice(), Config{})
	require.NoError(t, c.LoadCollection(context.Background()))

	require.NoError(t, c.LoadQueueItem(0))
	c.Wait()

	queue := c.Snapshot().Queue
	assert.Equal(t, []string{"Song a1", song.PlaceholderTitle, "Song a3"}, titles(queue))
	assert.False(t, queue[1].IsResolved())
	assert.Equal(t, "a2.json", queue[1].MetaFile())
}

func TestResolve_EmitsItemEvents(t *testing.T) {
	c, _, _ := loadedController(t)
	<-c.Events() // collection loaded

	require.NoError(t, c.LoadQueueItem(0))
	c.Wait()

	indexes := make(map[int]int)
	var kinds []ChangeKind
	for {
		select {
		case e := <-c.Events():
			kinds = append(kinds, e.Kind)
			if e.Kind == ChangeQueueItem {
				indexes[e.Index]++
			}
			continue
		default:
		}
		break
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, ChangeQueue, kinds[0])
	assert.Contains(t, kinds, ChangeCurrentSong)
	assert.Contains(t, kinds, ChangeExpandedRow)
	// One event for the metadata and one for the modification time
	assert.Equal(t, map[int]int{0: 2, 1: 2, 2: 2}, indexes)
}

func TestResolve_StaleQueueResults(t *testing.T) {
	tests := []struct {
		name       string
		allowStale bool
		want       []string
	}{
		{name: "fenced", want: []string{"Song a1", "Song a2", "Song a3"}},
		{name: "unfenced", allowStale: true, want: []string{"Song b1", "Song b2", "Song b3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newFakeCatalog()
			cat.hold("b1.json", "b2.json", "b3.json")
			c := newTestController(t, cat, newFakeDevice(), Config{AllowStaleResults: tt.allowStale})
			require.NoError(t, c.LoadCollection(context.Background()))

			// Lookups for artist B stay blocked while artist A replaces the queue
			require.NoError(t, c.LoadQueueItem(1))
			require.NoError(t, c.LoadQueueItem(0))
			assert.Eventually(t, func() bool { return allResolved(c.Snapshot().Queue) }, time.Second, 5*time.Millisecond)

			cat.release()
			c.Wait()

			assert.Equal(t, tt.want, titles(c.Snapshot().Queue))
		})
	}
}

func TestResolve_StaleBrowseResults(t *testing.T) {
	tests := []struct {
		name       string
		allowStale bool
		want       []string
	}{
		{name: "fenced", want: []string{"Song b1", "Song b2"}},
		// The third stale result has no slot in the shorter list and is dropped
		{name: "unfenced", allowStale: true, want: []string{"Song a1", "Song a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newFakeCatalog()
			cat.hold("a1.json", "a2.json", "a3.json")
			c := newTestController(t, cat, newFakeDevice(), Config{AllowStaleResults: tt.allowStale})
			require.NoError(t, c.LoadCollection(context.Background()))

			require.NoError(t, c.BrowseInto(0))
			require.NoError(t, c.BrowseInto(0))
			require.NoError(t, c.BrowseUp(0))
			require.NoError(t, c.BrowseInto(1))
			require.NoError(t, c.BrowseInto(0))
			assert.Eventually(t, func() bool { return allResolved(c.Snapshot().Items) }, time.Second, 5*time.Millisecond)

			cat.release()
			c.Wait()

			s := c.Snapshot()
			assert.Equal(t, "Album B1", s.Breadcrumb[2].Name)
			assert.Equal(t, tt.want, titles(s.Items))
		})
	}
}

func TestResolve_CloseCancelsLookups(t *testing.T) {
	cat := newFakeCatalog()
	cat.hold("a1.json", "a2.json", "a3.json")
	c, err := New(cat, newFakeDevice(), Config{})
	require.NoError(t, err)
	require.NoError(t, c.LoadCollection(context.Background()))
	require.NoError(t, c.LoadQueueItem(0))

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel blocked lookups")
	}
	for _, it := range c.Snapshot().Queue {
		assert.False(t, it.IsResolved())
	}
}
