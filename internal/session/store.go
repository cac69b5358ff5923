package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/metrics"
)

const sessionPrefix = "session:"

// Expiry is how long an idle session keeps its account override.
const Expiry = 30 * 24 * time.Hour

type Store interface {
	// Account returns the override for sid, or "" when none is set.
	Account(ctx context.Context, sid string) (string, error)
	SetAccount(ctx context.Context, sid, accountID string) error
	Reset(ctx context.Context, sid string) error
	Close() error
}

type badgerStore struct {
	db      *badger.DB
	metrics *metrics.Metrics
}

func New(path string, metrics *metrics.Metrics) (Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerStore{db: db, metrics: metrics}, nil
}

func key(sid string) []byte {
	return []byte(sessionPrefix + sid)
}

func (s *badgerStore) Account(ctx context.Context, sid string) (string, error) {
	if sid == "" {
		return "", nil
	}
	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sid))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.metrics.IncSessionRequest("read", true)
		return "", nil
	}
	s.metrics.IncSessionRequest("read", err == nil)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return sess.Account, nil
}

// SetAccount stores accountID as the override for sid. The reset sentinels
// ("" and "default") clear it instead.
func (s *badgerStore) SetAccount(ctx context.Context, sid, accountID string) error {
	if sid == "" {
		return fmt.Errorf("session id required")
	}
	if account.IsReset(accountID) {
		return s.Reset(ctx, sid)
	}

	data, err := json.Marshal(Session{
		Account:   strings.TrimSpace(accountID),
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		s.metrics.IncSessionRequest("update", false)
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key(sid), data).WithTTL(Expiry))
	})
	s.metrics.IncSessionRequest("update", err == nil)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *badgerStore) Reset(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(sid))
	})
	s.metrics.IncSessionRequest("delete", err == nil)
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
