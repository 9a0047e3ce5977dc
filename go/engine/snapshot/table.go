package snapshot

import (
	"sort"
)

// Table keys snapshots by address for a driver. Several keys may hold the same Snapshot.
type Table struct {
	snaps map[uint64]*Snapshot
}

func NewTable() *Table {
	return &Table{snaps: make(map[uint64]*Snapshot)}
}

func (t *Table) Put(addr uint64, s *Snapshot) {
	t.snaps[addr] = s
}

func (t *Table) Get(addr uint64) (*Snapshot, bool) {
	s, ok := t.snaps[addr]
	return s, ok
}

func (t *Table) Delete(addr uint64) {
	delete(t.snaps, addr)
}

func (t *Table) Len() int {
	return len(t.snaps)
}

// Keys returns every address in ascending order.
func (t *Table) Keys() []uint64 {
	keys := make([]uint64, 0, len(t.snaps))
	for k := range t.snaps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
