// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	genPrefix   = "gen:"
	entryPrefix = "entry:"
)

// BadgerStorage keeps generations on disk. A generation is a marker key
// gen:<name> plus entries under entry:<name>\x00<request key>.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadger opens the cache at dir. An empty dir keeps everything in
// memory.
func OpenBadger(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", dir, err)
	}
	return &BadgerStorage{db: db}, nil
}

func genKey(generation string) []byte {
	return []byte(genPrefix + generation)
}

func entryGenPrefix(generation string) []byte {
	return []byte(entryPrefix + generation + "\x00")
}

func entryKey(generation, key string) []byte {
	return append(entryGenPrefix(generation), key...)
}

func (s *BadgerStorage) Get(_ context.Context, generation, key string) (Entry, bool, error) {
	var e Entry
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(generation, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return e, found, nil
}

func (s *BadgerStorage) Put(ctx context.Context, generation, key string, e Entry) error {
	return s.PutAll(ctx, generation, map[string]Entry{key: e})
}

func (s *BadgerStorage) PutAll(ctx context.Context, generation string, entries map[string]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(genKey(generation), []byte{1}); err != nil {
			return err
		}
		for k, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode entry %s: %w", k, err)
			}
			if err := txn.Set(entryKey(generation, k), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStorage) Keys(_ context.Context, generation string) ([]string, error) {
	prefix := entryGenPrefix(generation)
	keys, err := s.scanKeys(prefix)
	if err != nil {
		return nil, fmt.Errorf("cache keys %s: %w", generation, err)
	}
	return keys, nil
}

func (s *BadgerStorage) Generations(context.Context) ([]string, error) {
	names, err := s.scanKeys([]byte(genPrefix))
	if err != nil {
		return nil, fmt.Errorf("cache generations: %w", err)
	}
	return names, nil
}

func (s *BadgerStorage) DeleteGeneration(_ context.Context, generation string) error {
	if err := s.db.DropPrefix(entryGenPrefix(generation)); err != nil {
		return fmt.Errorf("drop generation %s: %w", generation, err)
	}
	// The marker is an exact key: as a prefix, gen:v1 would also drop gen:v10.
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(genKey(generation))
	})
	if err != nil {
		return fmt.Errorf("drop generation marker %s: %w", generation, err)
	}
	return nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// scanKeys returns every key under prefix with the prefix removed, in key
// order.
func (s *BadgerStorage) scanKeys(prefix []byte) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			out = append(out, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
		}
		return nil
	})
	return out, err
}

var _ Storage = (*BadgerStorage)(nil)
