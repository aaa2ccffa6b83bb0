// Package cache remembers accepted SQL for previously asked questions so a
// repeated question skips the model round trip.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"sqlchat/internal/logger"
)

const keyPrefix = "stmt:"

type Options struct {
	Dir        string
	InMemory   bool
	TTL        time.Duration
	GCInterval time.Duration
}

// Entry is what gets stored per question.
type Entry struct {
	Statement string    `json:"statement"`
	Model     string    `json:"model"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// StatementCache is a badger-backed question → statement map with TTL.
type StatementCache struct {
	db     *badger.DB
	ttl    time.Duration
	gcStop chan struct{}
	gcWg   sync.WaitGroup
	once   sync.Once
}

func Open(opts Options) (*StatementCache, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		bopts = bopts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open statement cache: %w", err)
	}
	c := &StatementCache{db: db, ttl: opts.TTL, gcStop: make(chan struct{})}
	if opts.GCInterval > 0 && !opts.InMemory {
		c.startGC(opts.GCInterval)
	}
	return c, nil
}

func (c *StatementCache) startGC(interval time.Duration) {
	c.gcWg.Add(1)
	go func() {
		defer c.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.gcStop:
				return
			case <-ticker.C:
				for c.db.RunValueLogGC(0.5) == nil {
				}
			}
		}
	}()
}

// Key hashes the model and the whitespace/case-normalised question.
func Key(model, question string) []byte {
	norm := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := xxhash.Sum64String(model + "\x00" + norm)
	return []byte(keyPrefix + strconv.FormatUint(sum, 16))
}

func (c *StatementCache) Get(ctx context.Context, model, question string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(Key(model, question))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return e, true, nil
}

func (c *StatementCache) Put(ctx context.Context, model, question, statement string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(Entry{
		Statement: statement,
		Model:     model,
		Question:  question,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(Key(model, question), raw)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *StatementCache) Invalidate(ctx context.Context, model, question string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(Key(model, question))
	})
}

// Clear drops every cached statement, e.g. after the catalog changes.
func (c *StatementCache) Clear() error {
	return c.db.DropPrefix([]byte(keyPrefix))
}

func (c *StatementCache) Close() error {
	var err error
	c.once.Do(func() {
		close(c.gcStop)
		c.gcWg.Wait()
		err = c.db.Close()
	})
	return err
}

// badgerLogger forwards badger's chatter to the app logger at a lower level.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { logger.Errorf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Warningf(f string, v ...any) { logger.Warnf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Infof(f string, v ...any)    { logger.Debugf("badger: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Debugf(f string, v ...any)   { logger.Debugf("badger: "+strings.TrimSpace(f), v...) }
