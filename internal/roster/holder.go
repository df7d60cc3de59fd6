package roster

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Holder publishes the current snapshot to concurrent readers and
// swaps in replacements atomically. Readers always observe either the
// previous snapshot or the fully built replacement, never a partially
// populated table.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a holder publishing snap.
func NewHolder(snap *Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(snap)
	return h
}

// Current returns the published snapshot.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Replace publishes snap as the current snapshot.
func (h *Holder) Replace(snap *Snapshot) {
	h.current.Store(snap)
}

// Reload builds a fresh snapshot from path and publishes it. When the
// file content is unchanged from the current snapshot the rebuild is
// skipped and the current snapshot kept; the bool reports whether a
// swap happened. On read failure the current snapshot stays published.
func (h *Holder) Reload(path string) (*Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read quiz data %s: %w", path, err)
	}
	if cur := h.Current(); cur != nil && cur.SourceSHA256 == sha256hex(data) {
		return cur, false, nil
	}
	snap := New(path, data)
	h.current.Store(snap)
	return snap, true, nil
}
