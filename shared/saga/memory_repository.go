package saga

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// MemoryInstanceRepository keeps saga instances in memory
type MemoryInstanceRepository struct {
	mu        sync.RWMutex
	instances map[models.ID]*Instance
}

// NewMemoryInstanceRepository creates a new MemoryInstanceRepository
func NewMemoryInstanceRepository() *MemoryInstanceRepository {
	return &MemoryInstanceRepository{instances: make(map[models.ID]*Instance)}
}

func (r *MemoryInstanceRepository) Create(_ context.Context, inst *Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[inst.ID]; exists {
		return errors.Errorf("saga instance %s already exists", inst.ID)
	}
	r.instances[inst.ID] = inst.Clone()
	return nil
}

func (r *MemoryInstanceRepository) Update(_ context.Context, inst *Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.instances[inst.ID]
	if !exists {
		return apperrors.NotFound("saga instance", inst.ID.String())
	}
	if stored.Version.Value != inst.Version.Previous() {
		return errors.Wrapf(apperrors.ErrOptimisticLock, "saga instance %s", inst.ID)
	}
	r.instances[inst.ID] = inst.Clone()
	return nil
}

func (r *MemoryInstanceRepository) FindByID(_ context.Context, id models.ID) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, exists := r.instances[id]
	if !exists {
		return nil, apperrors.NotFound("saga instance", id.String())
	}
	return inst.Clone(), nil
}

func (r *MemoryInstanceRepository) FindByStatus(_ context.Context, status SagaStatus) ([]*Instance, error) {
	return r.filter(func(inst *Instance) bool { return inst.Status == status }), nil
}

func (r *MemoryInstanceRepository) FindStale(_ context.Context, updatedBefore time.Time) ([]*Instance, error) {
	return r.filter(func(inst *Instance) bool {
		return inst.Status == SagaStatusRunning && inst.Timestamps.UpdatedAt.Before(updatedBefore)
	}), nil
}

func (r *MemoryInstanceRepository) filter(keep func(*Instance) bool) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Instance
	for _, inst := range r.instances {
		if keep(inst) {
			result = append(result, inst.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamps.CreatedAt.Before(result[j].Timestamps.CreatedAt)
	})
	return result
}
