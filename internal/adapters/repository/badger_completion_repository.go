package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.CompletionRepository = (*BadgerCompletionRepository)(nil)

type storedCompletion struct {
	Day         string     `json:"day"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BadgerCompletionRepository stores one key per (user, day):
// completion/<user_id>/<YYYY-MM-DD>. Keys sort by day within a user.
type BadgerCompletionRepository struct {
	db  *badger.DB
	loc *time.Location
}

func NewBadgerCompletionRepository(db *badger.DB, loc *time.Location) *BadgerCompletionRepository {
	if loc == nil {
		loc = time.Local
	}
	return &BadgerCompletionRepository{db: db, loc: loc}
}

func completionPrefix(userID string) []byte {
	return []byte("completion/" + userID + "/")
}

func (r *BadgerCompletionRepository) key(userID string, day time.Time) []byte {
	return append(completionPrefix(userID), domain.DayKey(domain.NormalizeDay(day, r.loc))...)
}

func (r *BadgerCompletionRepository) encode(rec *domain.CompletionRecord) ([]byte, error) {
	return json.Marshal(storedCompletion{
		Day:         domain.DayKey(domain.NormalizeDay(rec.Date, r.loc)),
		IsCompleted: rec.IsCompleted,
		CompletedAt: rec.CompletedAt,
		UpdatedAt:   rec.UpdatedAt,
	})
}

func (r *BadgerCompletionRepository) decode(userID string, raw []byte) (*domain.CompletionRecord, error) {
	var s storedCompletion
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	day, err := domain.ParseDay(s.Day, r.loc)
	if err != nil {
		return nil, err
	}
	return &domain.CompletionRecord{
		UserID:      userID,
		Date:        day,
		IsCompleted: s.IsCompleted,
		CompletedAt: s.CompletedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

func (r *BadgerCompletionRepository) Get(ctx context.Context, userID string, day time.Time) (*domain.CompletionRecord, error) {
	var rec *domain.CompletionRecord

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.key(userID, day))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := r.decode(userID, val)
			if err != nil {
				log.Printf("[LEDGER] Corrupted record %s for user %s, treating as missing: %v", item.Key(), userID, err)
				return badger.ErrKeyNotFound
			}
			rec = decoded
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("badger get completion: %w", err)
	}
	return rec, nil
}

func (r *BadgerCompletionRepository) ListRange(ctx context.Context, userID string, start, end time.Time) ([]*domain.CompletionRecord, error) {
	records := []*domain.CompletionRecord{}
	prefix := completionPrefix(userID)
	endKey := string(r.key(userID, end))

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(r.key(userID, start)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			if string(item.Key()) >= endKey {
				break
			}

			err := item.Value(func(val []byte) error {
				rec, err := r.decode(userID, val)
				if err != nil {
					log.Printf("[LEDGER] Skipping corrupted record %s: %v", item.Key(), err)
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list completions: %w", err)
	}
	return records, nil
}

func (r *BadgerCompletionRepository) Upsert(ctx context.Context, rec *domain.CompletionRecord) error {
	data, err := r.encode(rec)
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key(rec.UserID, rec.Date), data)
	})
	if err != nil {
		return fmt.Errorf("badger upsert completion: %w", err)
	}
	return nil
}

func (r *BadgerCompletionRepository) InsertIfAbsent(ctx context.Context, rec *domain.CompletionRecord) (bool, error) {
	data, err := r.encode(rec)
	if err != nil {
		return false, err
	}

	inserted := false
	err = r.db.Update(func(txn *badger.Txn) error {
		key := r.key(rec.UserID, rec.Date)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		inserted = true
		return txn.Set(key, data)
	})
	if err != nil {
		return false, fmt.Errorf("badger insert completion: %w", err)
	}
	return inserted, nil
}

func (r *BadgerCompletionRepository) DeleteUser(ctx context.Context, userID string) error {
	prefix := completionPrefix(userID)
	var keys [][]byte

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger list completion keys: %w", err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("badger delete completions: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("badger delete completions: %w", err)
	}
	return nil
}
