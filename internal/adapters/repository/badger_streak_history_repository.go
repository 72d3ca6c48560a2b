package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
)

var _ domain.StreakHistoryRepository = (*BadgerStreakHistoryRepository)(nil)

type BadgerStreakHistoryRepository struct {
	db *badger.DB
}

func NewBadgerStreakHistoryRepository(db *badger.DB) *BadgerStreakHistoryRepository {
	return &BadgerStreakHistoryRepository{db: db}
}

func historyKey(userID string) []byte {
	return []byte("history/" + userID)
}

func (r *BadgerStreakHistoryRepository) Get(ctx context.Context, userID string) (*domain.StreakHistory, error) {
	var h domain.StreakHistory

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(historyKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &h)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("badger get history: %w", err)
	}
	return &h, nil
}

func (r *BadgerStreakHistoryRepository) Save(ctx context.Context, userID string, h *domain.StreakHistory) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(userID), data)
	})
	if err != nil {
		return fmt.Errorf("badger save history: %w", err)
	}
	return nil
}

func (r *BadgerStreakHistoryRepository) Delete(ctx context.Context, userID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(historyKey(userID))
	})
	if err != nil {
		return fmt.Errorf("badger delete history: %w", err)
	}
	return nil
}
