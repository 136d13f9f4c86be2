package repo

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntries persists session state rows in kv_entries.
type KVEntries struct {
	db  *gorm.DB
	now func() time.Time
}

func NewKVEntries(db *gorm.DB) *KVEntries {
	return &KVEntries{db: db, now: time.Now}
}

func (r *KVEntries) conn(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.db
	}
	return r.db.WithContext(ctx)
}

// Find returns the entry or nil when it does not exist.
func (r *KVEntries) Find(ctx context.Context, namespace, key string) (*models.KVEntry, error) {
	var entry models.KVEntry
	err := r.conn(ctx).
		Where("namespace = ? AND entry_key = ?", namespace, key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert writes value, replacing any previous value for the same key.
func (r *KVEntries) Upsert(ctx context.Context, namespace, key, value string) error {
	entry := models.KVEntry{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().UTC(),
	}
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (r *KVEntries) Delete(ctx context.Context, namespace, key string) error {
	return r.conn(ctx).
		Where("namespace = ? AND entry_key = ?", namespace, key).
		Delete(&models.KVEntry{}).Error
}

func (r *KVEntries) DeleteNamespace(ctx context.Context, namespace string) (int64, error) {
	res := r.conn(ctx).Where("namespace = ?", namespace).Delete(&models.KVEntry{})
	return res.RowsAffected, res.Error
}

// DeleteStale removes every row not written since before.
func (r *KVEntries) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.conn(ctx).Where("updated_at < ?", before.UTC()).Delete(&models.KVEntry{})
	return res.RowsAffected, res.Error
}
