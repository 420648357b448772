// Package storage persists engine state between sessions: UCI options
// and per-position analysis results, backed by BadgerDB.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keyOptions        = "options"
	analysisKeyPrefix = "analysis/"
)

// Options stores the persisted engine configuration.
type Options struct {
	HashMB   int    `json:"hash_mb"`
	EvalFile string `json:"eval_file"`
}

// DefaultOptions returns the default engine configuration.
func DefaultOptions() *Options {
	return &Options{
		HashMB: 64,
	}
}

// Analysis is one cached search result, keyed by Zobrist hash.
type Analysis struct {
	BestMove string `json:"best_move"` // UCI move string
	Score    int    `json:"score"`     // centipawns from the side to move
	Depth    int    `json:"depth"`     // completed search depth
	Nodes    uint64 `json:"nodes"`
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db *badger.DB
}

// DefaultDir returns the per-user database directory.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "chesster"), nil
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable badger's own logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// LoadOptions returns the persisted options, or defaults when none are stored.
func (s *Storage) LoadOptions() (*Options, error) {
	opts := DefaultOptions()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyOptions))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, opts)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	return opts, nil
}

// SaveOptions persists the options.
func (s *Storage) SaveOptions(opts *Options) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyOptions), data)
	})
	if err != nil {
		return fmt.Errorf("save options: %w", err)
	}
	return nil
}

// analysisKey builds the key for a position hash.
func analysisKey(hash uint64) []byte {
	key := make([]byte, len(analysisKeyPrefix)+8)
	copy(key, analysisKeyPrefix)
	binary.BigEndian.PutUint64(key[len(analysisKeyPrefix):], hash)
	return key
}

// SaveAnalysis records a search result for a position. A shallower
// result never overwrites a deeper one.
func (s *Storage) SaveAnalysis(hash uint64, a *Analysis) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := analysisKey(hash)

		if item, err := txn.Get(key); err == nil {
			var prev Analysis
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			})
			if err == nil && prev.Depth > a.Depth {
				return nil
			}
		}

		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// LoadAnalysis returns the cached result for a position, if any.
func (s *Storage) LoadAnalysis(hash uint64) (*Analysis, bool, error) {
	var a Analysis
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &a); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("load analysis: %w", err)
	}

	if !found {
		return nil, false, nil
	}
	return &a, true, nil
}
