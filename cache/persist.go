package cache

import (
	"context"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dashwise/cachekit/kv"
	"github.com/dashwise/cachekit/logger"
)

// persistQueueSize bounds the pending persistence operation queue. When the
// queue is full new operations are dropped with a warning; persistence is
// best-effort and must never block a foreground mutation.
const persistQueueSize = 256

// purgeConcurrency bounds the parallel deletes issued by a namespace purge.
const purgeConcurrency = 8

type opKind int

const (
	opWrite opKind = iota
	opRemove
	opPurge
)

type persistOp struct {
	kind opKind
	key  string
	data any
}

// bridge mirrors selected cache mutations to a durable kv.Store. Operations
// are applied by a single worker goroutine in the order they were enqueued,
// which preserves per-key write ordering. All failures are logged and
// dropped; the in-memory cache never observes them.
type bridge struct {
	backend   kv.Store
	predicate KeyPredicate
	prefix    string
	log       logger.Logger
	ctx       context.Context

	ops       chan persistOp
	waitGroup sync.WaitGroup
	mutex     sync.Mutex
	closed    bool
	once      sync.Once
}

func newBridge(ctx context.Context, log logger.Logger, backend kv.Store, predicate KeyPredicate, prefix string) *bridge {
	b := &bridge{
		backend:   backend,
		predicate: predicate,
		prefix:    prefix,
		log:       log.WithPrefix("[persist]"),
		ctx:       ctx,
		ops:       make(chan persistOp, persistQueueSize),
	}
	b.waitGroup.Add(1)
	go b.run()
	return b
}

// matches reports whether key should be mirrored to the durable backend.
func (b *bridge) matches(key string) bool {
	return b.predicate == nil || b.predicate(key)
}

func (b *bridge) enqueue(op persistOp) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ops <- op:
	default:
		b.log.Warn("persistence queue full, dropping %s for key %q", opName(op.kind), op.key)
	}
}

func (b *bridge) write(key string, data any) {
	b.enqueue(persistOp{kind: opWrite, key: key, data: data})
}

func (b *bridge) remove(key string) {
	b.enqueue(persistOp{kind: opRemove, key: key})
}

// purge removes every persisted key under the namespace prefix. It is
// queued behind earlier writes so a purge never races a preceding Set.
func (b *bridge) purge() {
	b.enqueue(persistOp{kind: opPurge})
}

// close stops accepting operations, drains the queue, and waits for the
// worker to exit. Safe to call more than once.
func (b *bridge) close() {
	b.once.Do(func() {
		b.mutex.Lock()
		b.closed = true
		close(b.ops)
		b.mutex.Unlock()
		b.waitGroup.Wait()
	})
}

func (b *bridge) run() {
	defer b.waitGroup.Done()
	for op := range b.ops {
		switch op.kind {
		case opWrite:
			b.applyWrite(op.key, op.data)
		case opRemove:
			if err := b.backend.Remove(b.ctx, b.prefix+op.key); err != nil {
				b.log.Warn("failed to remove key %q from durable backend: %s", op.key, err)
			}
		case opPurge:
			b.applyPurge()
		}
	}
}

func (b *bridge) applyWrite(key string, data any) {
	payload, err := msgpack.Marshal(data)
	if err != nil {
		b.log.Warn("failed to encode key %q for persistence: %s", key, err)
		return
	}
	if err := b.backend.Set(b.ctx, b.prefix+key, payload); err != nil {
		b.log.Warn("failed to persist key %q: %s", key, err)
	}
}

func (b *bridge) applyPurge() {
	keys, err := b.backend.ListKeys(b.ctx, b.prefix)
	if err != nil {
		b.log.Warn("failed to list persisted keys for purge: %s", err)
		return
	}
	group, ctx := errgroup.WithContext(b.ctx)
	group.SetLimit(purgeConcurrency)
	for _, key := range keys {
		key := key
		group.Go(func() error {
			return b.backend.Remove(ctx, key)
		})
	}
	if err := group.Wait(); err != nil {
		b.log.Warn("failed to purge persisted keys: %s", err)
	}
}

func opName(kind opKind) string {
	switch kind {
	case opWrite:
		return "write"
	case opRemove:
		return "remove"
	default:
		return "purge"
	}
}
