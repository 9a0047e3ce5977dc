package snapcorn

import (
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/engine/snapshot"
	"github.com/snapcorn/snapcorn/go/models"
)

// CreateSnapshot captures the machine. The machine is not modified.
func (m *Machine) CreateSnapshot() (*snapshot.Snapshot, error) {
	s, err := snapshot.Create(m)
	if err != nil {
		return nil, err
	}
	m.log.Debug("snapshot created", "snapshot", s.String())
	return s, nil
}

// RestoreSnapshot puts the machine back into the state s was taken in.
// On failure the machine is unchanged.
func (m *Machine) RestoreSnapshot(s *snapshot.Snapshot) error {
	if err := snapshot.Restore(m, s); err != nil {
		m.log.Warn("snapshot restore failed", "snapshot", s.String(), "err", err)
		return err
	}
	m.log.Debug("snapshot restored", "snapshot", s.String())
	return nil
}

// DiffSnapshot compares the default registers of s against the live cpu.
func (m *Machine) DiffSnapshot(s *snapshot.Snapshot, onlyChanged bool) (*models.Changes, error) {
	old, err := s.CpuInstance()
	if err != nil {
		return nil, err
	}
	cur, err := m.Cpu()
	if err != nil {
		return nil, err
	}
	if old.Arch() != cur.Arch() {
		return nil, errors.Errorf("cannot diff %s snapshot against %s", old.Arch().Name, cur.Arch().Name)
	}
	a := cur.Arch()
	before, err := a.RegDump(old)
	if err != nil {
		return nil, err
	}
	after, err := a.RegDump(cur)
	if err != nil {
		return nil, err
	}
	return models.Diff(a, before, after, onlyChanged), nil
}
