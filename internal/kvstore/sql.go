package kvstore

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-core/internal/repo"
	"github.com/angelmondragon/storefront-core/pkg/db"
)

// SQL stores state rows in kv_entries through gorm (postgres or sqlite).
type SQL struct {
	client  *db.Client
	entries *repo.KVEntries
}

func NewSQL(client *db.Client) *SQL {
	return &SQL{client: client, entries: repo.NewKVEntries(client.DB())}
}

func (s *SQL) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	entry, err := s.entries.Find(ctx, namespace, key)
	if err != nil || entry == nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, namespace, key, value string) error {
	return s.entries.Upsert(ctx, namespace, key, value)
}

func (s *SQL) Delete(ctx context.Context, namespace, key string) error {
	return s.entries.Delete(ctx, namespace, key)
}

func (s *SQL) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.entries.DeleteNamespace(ctx, namespace)
	return err
}

// Prune drops rows not written since before. Redis expires state on its own;
// SQL rows need this sweep.
func (s *SQL) Prune(ctx context.Context, before time.Time) (int64, error) {
	return s.entries.DeleteStale(ctx, before)
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
