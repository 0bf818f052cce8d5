package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/keyledger/internal/event"
	"github.com/roach88/keyledger/internal/seed"
)

// MemoryAdapter simulates tokens in software. Keys are derived from the seed
// at each assignment's derivation path, so a simulated run is reproducible.
// Used by tests and by the CLI's --simulate-tokens mode.
type MemoryAdapter struct {
	mu     sync.Mutex
	seed   *seed.Secret
	next   int
	prefix string
	// FailSlots makes GenerateKey fail for the listed slots.
	FailSlots map[event.Slot]bool
	// KeepFactoryPUK leaves the PUK unchanged, which blocks provisioning.
	KeepFactoryPUK bool
}

// NewMemoryAdapter returns an adapter whose devices are numbered
// "<prefix>-1", "<prefix>-2", ...
func NewMemoryAdapter(s *seed.Secret, prefix string) *MemoryAdapter {
	return &MemoryAdapter{seed: s, prefix: prefix}
}

func (m *MemoryAdapter) Detect(context.Context) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return Device{Serial: fmt.Sprintf("%s-%d", m.prefix, m.next), Model: "simulated-piv"}, nil
}

func (m *MemoryAdapter) ChangeCredentials(context.Context, string) (bool, bool, error) {
	return true, !m.KeepFactoryPUK, nil
}

func (m *MemoryAdapter) GenerateKey(_ context.Context, _ string, a Assignment) (string, error) {
	if m.FailSlots[a.Slot] {
		return "", fmt.Errorf("slot %s: device error", a.Slot)
	}
	s := seed.DeriveChild(m.seed, a.DerivationPath)
	defer s.Zero()
	key := seed.GenerateKeypair(s)
	defer key.Zero()
	return key.ID, nil
}
