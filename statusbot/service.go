package main

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cistatus/shared/cache"
	"cistatus/shared/kafka"
	"cistatus/shared/message"
	"cistatus/shared/model"
	"cistatus/shared/notify"
	"cistatus/shared/payload"
	"cistatus/shared/render"
	"cistatus/shared/stats"
	"cistatus/shared/store"
)

const resultsTopic = "build-results"

// StatusBot owns the ingestion and query pipelines.
type StatusBot struct {
	store      *store.ResultStore
	cache      *cache.BranchStatusCache
	aggregator *stats.Aggregator
	dispatcher *notify.Dispatcher
	producer   *kafka.Producer // nil when the relay is disabled
	trigger    string

	locksMutex  sync.Mutex
	branchLocks map[string]*sync.Mutex
}

func NewStatusBot(resultStore *store.ResultStore, statusCache *cache.BranchStatusCache,
	aggregator *stats.Aggregator, dispatcher *notify.Dispatcher,
	producer *kafka.Producer, trigger string) *StatusBot {
	return &StatusBot{
		store:       resultStore,
		cache:       statusCache,
		aggregator:  aggregator,
		dispatcher:  dispatcher,
		producer:    producer,
		trigger:     trigger,
		branchLocks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing updates for one branch. Updates for
// different branches never block each other.
func (b *StatusBot) lockFor(branch string) *sync.Mutex {
	b.locksMutex.Lock()
	defer b.locksMutex.Unlock()

	lock, ok := b.branchLocks[branch]
	if !ok {
		lock = &sync.Mutex{}
		b.branchLocks[branch] = lock
	}
	return lock
}

// Ingest runs the full pipeline for one CI event: normalize, commit build
// row and counters atomically, update the cache, relay to Kafka and push the
// refreshed status table to the chat room.
//
// The counter read-modify-write and the store commit for a branch run under
// that branch's lock, so concurrent events for the same branch serialize and
// counters are never double-counted or dropped. The cache is only updated
// after the store commit: a failed write leaves cache and store untouched.
func (b *StatusBot) Ingest(ctx context.Context, body []byte) error {
	result, err := payload.Normalize(body)
	if err != nil {
		return err
	}

	if err := b.commit(ctx, result); err != nil {
		return err
	}

	b.relay(result)

	rendered := render.Render(b.cache.GetMany(nil))
	b.dispatcher.Dispatch(ctx, rendered)
	return nil
}

func (b *StatusBot) commit(ctx context.Context, result *model.BuildResult) error {
	lock := b.lockFor(result.Branch)
	lock.Lock()
	defer lock.Unlock()

	newStats, err := b.aggregator.Record(ctx, result.Branch, result.Status)
	if err != nil {
		return err
	}
	if err := b.store.UpsertResultWithStats(ctx, result, newStats); err != nil {
		return err
	}
	b.cache.Set(result.Branch, result)
	return nil
}

// relay publishes the ingested result to the build-results topic, best
// effort. A relay failure never fails the ingestion.
func (b *StatusBot) relay(result *model.BuildResult) {
	if b.producer == nil {
		return
	}

	eventID := uuid.New().String()
	msg := message.FromResult(eventID, result)
	if err := b.producer.SendMessage(resultsTopic, eventID, msg); err != nil {
		log.Printf("❌ Failed to relay result for branch %s: %v", result.Branch, err)
	}
}

// Query renders the current status of the branches named in a chat command
// and returns the serialized room message. Read-only.
func (b *StatusBot) Query(text string) ([]byte, error) {
	branches := b.parseBranches(text)
	rendered := render.Render(b.cache.GetMany(branches))
	return b.dispatcher.Respond(rendered)
}

// parseBranches splits the command text on the literal trigger token, trims
// each segment and drops empty ones. "/build main /build dev" → [main dev];
// a bare trigger yields no branches, which means "all".
func (b *StatusBot) parseBranches(text string) []string {
	var branches []string
	for _, part := range strings.Split(text, b.trigger) {
		part = strings.TrimSpace(part)
		if part != "" {
			branches = append(branches, part)
		}
	}
	return branches
}
