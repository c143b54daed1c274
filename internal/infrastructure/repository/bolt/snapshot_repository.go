package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"go.etcd.io/bbolt"
)

const snapshotsBucket = "feed_snapshots"

// Keys are league(8) | published unix nanos(8) | id, so a league's snapshots
// sort by publish time inside the bucket.
type storedSnapshot struct {
	ID           string    `json:"id"`
	Notification string    `json:"notification"`
	LeagueID     int64     `json:"leagueId"`
	Kind         string    `json:"kind"`
	Body         []byte    `json:"body"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type SnapshotRepository struct {
	db *bbolt.DB
}

func Open(path string) (*SnapshotRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt snapshot store at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot bucket: %w", err)
	}
	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func leaguePrefix(leagueID int64) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, uint64(leagueID))
	return prefix
}

func snapshotKey(item snapshot.Snapshot) []byte {
	key := make([]byte, 16, 16+len(item.ID))
	binary.BigEndian.PutUint64(key[:8], uint64(item.LeagueID))
	binary.BigEndian.PutUint64(key[8:16], uint64(item.PublishedAt.UnixNano()))
	return append(key, item.ID...)
}

func publishedFromKey(key []byte) (time.Time, bool) {
	if len(key) < 16 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(key[8:16]))).UTC(), true
}

func (r *SnapshotRepository) Insert(_ context.Context, item snapshot.Snapshot) error {
	value, err := sonic.Marshal(storedSnapshot(item))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %s does not exist", snapshotsBucket)
		}
		return bucket.Put(snapshotKey(item), value)
	})
}

func (r *SnapshotRepository) ListByLeague(ctx context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error) {
	kind = strings.TrimSpace(kind)
	prefix := leaguePrefix(leagueID)
	out := make([]snapshot.Snapshot, 0)

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotsBucket))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		k, v := cursor.Seek(leaguePrefix(leagueID + 1))
		if k == nil {
			k, v = cursor.Last()
		} else {
			k, v = cursor.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Prev() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var stored storedSnapshot
			if err := sonic.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decode snapshot %x: %w", k, err)
			}
			if kind != "" && stored.Kind != kind {
				continue
			}
			out = append(out, snapshot.Snapshot(stored))
			if limit > 0 && len(out) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots league=%d: %w", leagueID, err)
	}
	return out, nil
}

func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotsBucket))
		if bucket == nil {
			return nil
		}

		var expired [][]byte
		err := bucket.ForEach(func(k, _ []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if published, ok := publishedFromKey(k); ok && published.Before(cutoff) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete snapshots older than %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	return removed, nil
}
