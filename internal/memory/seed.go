package memory

import (
	"fmt"

	"github.com/fyrsmithlabs/mentord/internal/config"
)

// FromConfig builds a store from the configured memory seeds, keeping their order.
func FromConfig(cfg config.MemoryConfig) (*Store, error) {
	items := make([]Item, 0, len(cfg.Seed))
	for i, seed := range cfg.Seed {
		source := Source(seed.Source)
		if source == "" {
			source = SourceSystem
		}
		item, err := NewItem(seed.Trigger, seed.Insight, seed.SuccessRate, source)
		if err != nil {
			return nil, fmt.Errorf("memory seed %d: %w", i, err)
		}
		items = append(items, *item)
	}
	return NewStore(items...), nil
}
