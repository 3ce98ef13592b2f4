// Package saga implements an orchestration-based saga engine. A saga
// instance is a persisted cursor over an immutable Definition: the engine
// sends one command at a time, waits for the correlated reply and then
// either advances, compensates in reverse order, or gives up as STUCK.
package saga

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/shared/messaging"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// SagaStatus represents the current status of a saga instance
type SagaStatus string

const (
	SagaStatusRunning    SagaStatus = "running"
	SagaStatusCompleted  SagaStatus = "completed"
	SagaStatusRolledBack SagaStatus = "rolled_back"
	SagaStatusStuck      SagaStatus = "stuck"
)

// IsTerminal reports whether no further reply can move the instance
func (s SagaStatus) IsTerminal() bool {
	return s == SagaStatusCompleted || s == SagaStatusRolledBack || s == SagaStatusStuck
}

// Instance is the persisted state of one saga execution
type Instance struct {
	ID            models.ID           `json:"id"`
	SagaType      string              `json:"saga_type"`
	StepIndex     int                 `json:"step_index"`
	Direction     messaging.Direction `json:"direction"`
	Status        SagaStatus          `json:"status"`
	Data          json.RawMessage     `json:"data"`
	LastCommandID models.ID           `json:"last_command_id,omitempty"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Timestamps    models.Timestamps   `json:"timestamps"`
	Version       models.Version      `json:"version"`
}

func newInstance(sagaType string, data json.RawMessage) *Instance {
	return &Instance{
		ID:         models.GenerateUUID(),
		SagaType:   sagaType,
		StepIndex:  0,
		Direction:  messaging.DirectionForward,
		Status:     SagaStatusRunning,
		Data:       data,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}
}

// Matches reports whether key addresses the live cursor of the instance
func (i *Instance) Matches(key messaging.CorrelationKey) bool {
	return !i.Status.IsTerminal() &&
		i.ID == key.SagaID &&
		i.SagaType == key.SagaType &&
		i.StepIndex == key.StepIndex &&
		i.Direction == key.Direction
}

// IsCompleted reports whether the instance reached a terminal status
func (i *Instance) IsCompleted() bool {
	return i.Status.IsTerminal()
}

func (i *Instance) touch() {
	i.Timestamps = i.Timestamps.Update()
	i.Version = i.Version.Update()
}

// Clone returns a deep copy of the instance
func (i *Instance) Clone() *Instance {
	clone := *i
	clone.Data = append(json.RawMessage(nil), i.Data...)
	return &clone
}

// DataOf decodes the saga data of an instance
func DataOf[D any](inst *Instance) (D, error) {
	var data D
	if err := json.Unmarshal(inst.Data, &data); err != nil {
		return data, errors.Wrapf(err, "failed to decode data of saga %s", inst.ID)
	}
	return data, nil
}

// InstanceRepository persists saga instances. Update must fail with
// apperrors.ErrOptimisticLock when the stored version is not the one the
// instance was loaded with.
type InstanceRepository interface {
	Create(ctx context.Context, inst *Instance) error
	Update(ctx context.Context, inst *Instance) error
	FindByID(ctx context.Context, id models.ID) (*Instance, error)
	FindByStatus(ctx context.Context, status SagaStatus) ([]*Instance, error)
	FindStale(ctx context.Context, updatedBefore time.Time) ([]*Instance, error)
}

// ReplyChannel is the channel the participants answer a saga type on
func ReplyChannel(sagaType string) string {
	return sagaType + ".reply"
}
