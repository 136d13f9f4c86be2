package models

import "time"

// KVEntry is one persisted piece of session state.
type KVEntry struct {
	Namespace string    `gorm:"column:namespace;primaryKey;size:128"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:256"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
