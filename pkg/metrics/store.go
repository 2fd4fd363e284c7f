package metrics

import "sync/atomic"

// Store holds the latest snapshot. Readers always see one complete
// snapshot; Replace swaps the whole set at once.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Replace makes snap the current snapshot. A nil snap is ignored so a
// published snapshot is never cleared.
func (s *Store) Replace(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
}

// Load returns the current snapshot, or nil if none was ever stored.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}
