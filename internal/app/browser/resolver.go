package browser

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/discographic/internal/domain/song"
)

// resolveLocked starts the metadata lookups for a freshly reset list.
// Lookups run concurrently; each one only ever writes to its own position.
// Must be called with lock held.
func (c *Controller) resolveLocked(kind ListKind, generation uint64, metaFiles []string) {
	if len(metaFiles) == 0 {
		return
	}
	files := make([]string, len(metaFiles))
	copy(files, metaFiles)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		var g errgroup.Group
		g.SetLimit(c.config.MetadataConcurrency)
		for i, metaFile := range files {
			i, metaFile := i, metaFile
			g.Go(func() error {
				c.resolveItem(kind, generation, i, metaFile)
				return nil
			})
		}
		_ = g.Wait()
		zlog.Debug().Msgf("browser: metadata resolution finished: list=%s generation=%d items=%d", kind, generation, len(files))
	}()
}

// resolveItem looks up one item, then for queue items probes the song for its modification time.
// Failures are logged and leave the item as it is.
func (c *Controller) resolveItem(kind ListKind, generation uint64, idx int, metaFile string) {
	meta, err := c.catalog.FetchMetadata(c.ctx, metaFile)
	if err != nil {
		logLookupError("metadata", kind, idx, metaFile, err)
		return
	}
	if !c.applyResolved(kind, generation, idx, song.NewResolved(*meta)) {
		return
	}

	if kind != ListQueue || meta.File == "" {
		return
	}
	head, err := c.catalog.FetchResourceHead(c.ctx, meta.File)
	if err != nil {
		logLookupError("head", kind, idx, meta.File, err)
		return
	}
	if head.LastModified == "" {
		return
	}
	c.applyLastModified(kind, generation, idx, head.LastModified)
}

// applyResolved replaces the item at idx. Returns false if the result was dropped.
func (c *Controller) applyResolved(kind ListKind, generation uint64, idx int, item song.Resolved) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.listLocked(kind)
	if c.isStaleLocked(list, generation) {
		zlog.Debug().Msgf("browser: dropping stale metadata: list=%s index=%d generation=%d current=%d",
			kind, idx, generation, list.generation)
		return false
	}
	if !list.replace(idx, item) {
		return false
	}
	c.sendEventLocked(Change{Kind: kind.itemChange(), Index: idx, Generation: list.generation})
	return true
}

// applyLastModified attaches the modification time to the resolved item at idx.
func (c *Controller) applyLastModified(kind ListKind, generation uint64, idx int, lastModified string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.listLocked(kind)
	if c.isStaleLocked(list, generation) {
		return
	}
	current, ok := list.at(idx)
	if !ok {
		return
	}
	resolved, ok := current.(song.Resolved)
	if !ok {
		return
	}
	resolved.LastModified = lastModified
	list.replace(idx, resolved)
	c.sendEventLocked(Change{Kind: kind.itemChange(), Index: idx, Generation: list.generation})
}

func (c *Controller) listLocked(kind ListKind) *itemList {
	if kind == ListQueue {
		return &c.queue
	}
	return &c.browse
}

// isStaleLocked reports whether a result for generation must be dropped.
// With AllowStaleResults the result goes to whatever list is current, as long as the index fits.
func (c *Controller) isStaleLocked(list *itemList, generation uint64) bool {
	return !c.config.AllowStaleResults && list.generation != generation
}

func logLookupError(what string, kind ListKind, idx int, id string, err error) {
	if errors.Is(err, context.Canceled) {
		zlog.Debug().Msgf("browser: %s lookup canceled: list=%s index=%d id=%s", what, kind, idx, id)
		return
	}
	zlog.Warn().Msgf("browser: %s lookup failed: list=%s index=%d id=%s: %v", what, kind, idx, id, err)
}
