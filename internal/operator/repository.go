package operator

import (
	"context"
	"encoding/json"
	"fmt"

	"ward-assistant/internal/kv"
)

const profileKeyPrefix = "operator-profile|"

// KVRepository stores profiles as JSON documents in the durable
// key-value store, keyed by operator id.
type KVRepository struct {
	store kv.Store
}

func NewKVRepository(store kv.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	raw, ok, err := r.store.Get(ctx, profileKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	if !ok {
		return nil, NotFound(id)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", id, err)
	}
	p.restoreSeenSet()
	return &p, nil
}

func (r *KVRepository) Save(ctx context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.ID, err)
	}
	if err := r.store.Put(ctx, profileKeyPrefix+p.ID, raw); err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}
