package agent

// Store exposes panel definitions to the incubation pipeline.
type Store interface {
	Analysts() []Definition
	FindByRole(role Role) (Definition, bool)
}

// MemoryStore implements Store with an in-memory slice seeded at startup.
type MemoryStore struct {
	items []Definition
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied definitions.
func NewMemoryStore(items []Definition) *MemoryStore {
	return &MemoryStore{items: append([]Definition(nil), items...)}
}

// Analysts returns the specialist seats in panel order, excluding the
// coordinator.
func (s *MemoryStore) Analysts() []Definition {
	out := make([]Definition, 0, len(s.items))
	for _, item := range s.items {
		if item.Role == RoleCEACoordinator {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FindByRole looks up a definition by role.
func (s *MemoryStore) FindByRole(role Role) (Definition, bool) {
	for _, item := range s.items {
		if item.Role == role {
			return item, true
		}
	}
	return Definition{}, false
}
