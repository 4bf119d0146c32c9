package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procurement-portal/internal/models"
	"procurement-portal/internal/rfpflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowRepo хранит мастер создания RFP по ключу браузерной сессии.
type WorkflowRepo struct {
	db *gorm.DB
}

func NewWorkflowRepo(db *gorm.DB) *WorkflowRepo {
	return &WorkflowRepo{db: db}
}

func (r *WorkflowRepo) Load(ctx context.Context, key string) (rfpflow.Snapshot, error) {
	var rec models.WorkflowRecord
	err := r.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rfpflow.Snapshot{}, rfpflow.ErrNoWorkflow
	}
	if err != nil {
		return rfpflow.Snapshot{}, fmt.Errorf("load workflow: %w", err)
	}
	return decodeSnapshot(rec)
}

func (r *WorkflowRepo) Save(ctx context.Context, key string, snap rfpflow.Snapshot) error {
	rec, err := encodeSnapshot(key, snap)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"draft_id", "state", "payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepo) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&models.WorkflowRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}

// Acquire ставит отметку о запросе в полёте. Строка-заглушка без payload
// создаётся, если мастер ещё не сохранялся.
func (r *WorkflowRepo) Acquire(ctx context.Context, key string) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WorkflowRecord{Key: key}).Error
	if err != nil {
		return fmt.Errorf("acquire workflow: %w", err)
	}

	now := time.Now()
	res := db.Model(&models.WorkflowRecord{}).
		Where("key = ? AND (pending_since IS NULL OR pending_since < ?)", key, now.Add(-rfpflow.PendingTimeout)).
		Update("pending_since", now)
	if res.Error != nil {
		return fmt.Errorf("acquire workflow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return rfpflow.ErrBusy
	}
	return nil
}

func (r *WorkflowRepo) Release(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Model(&models.WorkflowRecord{}).
		Where("key = ?", key).
		Update("pending_since", nil).Error
	if err != nil {
		return fmt.Errorf("release workflow: %w", err)
	}
	return nil
}

func encodeSnapshot(key string, snap rfpflow.Snapshot) (models.WorkflowRecord, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return models.WorkflowRecord{}, fmt.Errorf("encode workflow: %w", err)
	}
	rec := models.WorkflowRecord{
		Key:     key,
		State:   string(snap.State),
		Payload: string(payload),
	}
	if snap.Draft != nil {
		rec.DraftID = snap.Draft.ID
	}
	return rec, nil
}

func decodeSnapshot(rec models.WorkflowRecord) (rfpflow.Snapshot, error) {
	// заглушка от Acquire
	if rec.Payload == "" {
		return rfpflow.Snapshot{}, rfpflow.ErrNoWorkflow
	}
	var snap rfpflow.Snapshot
	if err := json.Unmarshal([]byte(rec.Payload), &snap); err != nil {
		return rfpflow.Snapshot{}, fmt.Errorf("decode workflow %s: %w", rec.Key, err)
	}
	return snap, nil
}
