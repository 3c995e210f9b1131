package preprocess

import (
	"github.com/biogo/store/llrb"
)

// bufItem is one pending result bundle in the reorder buffer, ordered by
// its producer-assigned index. calls is nil once the bundle has been
// spilled to disk (see spill.go); spillPath then names where to read it
// back from.
type bufItem struct {
	idx       uint64
	calls     *Calls
	spillPath string
}

func (b *bufItem) Compare(c llrb.Comparable) int {
	o := c.(*bufItem)
	switch {
	case b.idx < o.idx:
		return -1
	case b.idx > o.idx:
		return 1
	default:
		return 0
	}
}

// reorderBuffer is the postprocessor's "small reorder buffer" of §4.6: an
// LLRB tree keyed by index, draining every prefix of consecutive indices
// that becomes available as out-of-order worker results arrive.
type reorderBuffer struct {
	tree      llrb.Tree
	next      uint64
	spillDir  string
	threshold int
}

func newReorderBuffer(spillDir string, threshold int) *reorderBuffer {
	return &reorderBuffer{spillDir: spillDir, threshold: threshold}
}

// push inserts one result and returns every bundle that is now ready to be
// emitted, in ascending index order.
func (b *reorderBuffer) push(calls Calls) ([]*Calls, error) {
	b.tree.Insert(&bufItem{idx: calls.Index, calls: &calls})
	if b.threshold > 0 && b.tree.Len() > b.threshold {
		if err := b.spillExcess(); err != nil {
			return nil, err
		}
	}
	return b.drainReady()
}

// pending reports how many bundles are still buffered, waiting for earlier
// indices to arrive.
func (b *reorderBuffer) pending() int {
	return b.tree.Len()
}

func (b *reorderBuffer) drainReady() ([]*Calls, error) {
	var out []*Calls
	for b.tree.Len() > 0 {
		item, ok := b.tree.Min().(*bufItem)
		if !ok || item.idx != b.next {
			break
		}
		b.tree.DeleteMin()
		calls := item.calls
		if calls == nil {
			var err error
			calls, err = readSpill(item.spillPath)
			if err != nil {
				return out, err
			}
		}
		out = append(out, calls)
		b.next++
	}
	return out, nil
}

// spillExcess moves the bundles farthest from being emitted next (i.e. with
// the largest indices) out of memory and onto disk, zstd-compressed, so a
// worker that races far ahead of a slow one doesn't grow the reorder
// buffer's memory use without bound.
func (b *reorderBuffer) spillExcess() error {
	var all []*bufItem
	b.tree.Do(func(c llrb.Comparable) bool {
		all = append(all, c.(*bufItem))
		return true
	})
	excess := len(all) - b.threshold
	if excess <= 0 {
		return nil
	}
	for _, item := range all[len(all)-excess:] {
		if item.calls == nil {
			continue
		}
		path, err := spillToDisk(b.spillDir, item.idx, item.calls)
		if err != nil {
			return err
		}
		item.spillPath = path
		item.calls = nil
	}
	return nil
}
