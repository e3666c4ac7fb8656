package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"swamptok/internal/queue"
	"swamptok/internal/redis"
)

const (
	readBatchSize = 10
	errorBackoff  = time.Second
)

// Manager runs a pool of workers draining the feed event stream.
type Manager struct {
	client  *redis.Client
	handler *EventHandler
	count   int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(client *redis.Client, handler *EventHandler, count int) *Manager {
	if count < 1 {
		count = 1
	}
	return &Manager{
		client:  client,
		handler: handler,
		count:   count,
	}
}

// Start creates the consumer group and launches the workers. Each worker
// first replays its own pending entries, then reads new ones.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	bootstrap := queue.NewConsumer(m.client, queue.FeedGroup, "bootstrap")
	if err := bootstrap.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	for i := 0; i < m.count; i++ {
		name := fmt.Sprintf("worker-%d", i)
		consumer := queue.NewConsumer(m.client, queue.FeedGroup, name)

		m.wg.Add(1)
		go m.run(ctx, name, consumer)
	}

	log.Printf("[Worker] pool started: workers=%d group=%s", m.count, queue.FeedGroup)
	return nil
}

// Stop signals the workers and waits for in-flight events to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	log.Printf("[Worker] pool stopped")
}

func (m *Manager) run(ctx context.Context, name string, consumer *queue.Consumer) {
	defer m.wg.Done()

	m.processPending(ctx, name, consumer)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := consumer.Read(ctx, readBatchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker] %s read FAILED: err=%v", name, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, msg := range messages {
			m.process(ctx, name, consumer, msg)
		}
	}
}

// processPending replays deliveries a previous incarnation of this consumer
// claimed but never acked.
func (m *Manager) processPending(ctx context.Context, name string, consumer *queue.Consumer) {
	for {
		messages, err := consumer.ReadPending(ctx, readBatchSize)
		if err != nil {
			log.Printf("[Worker] %s pending read FAILED: err=%v", name, err)
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Printf("[Worker] %s replaying pending: count=%d", name, len(messages))
		for _, msg := range messages {
			m.process(ctx, name, consumer, msg)
		}
	}
}

func (m *Manager) process(ctx context.Context, name string, consumer *queue.Consumer, msg queue.Message) {
	start := time.Now()
	if err := m.handler.Handle(ctx, msg.Event); err != nil {
		// Left unacked: the entry stays pending and is replayed on restart.
		log.Printf("[Worker] %s handle FAILED: type=%s id=%s err=%v", name, msg.Event.Type, msg.ID, err)
		return
	}

	if err := consumer.Ack(ctx, msg.ID); err != nil {
		log.Printf("[Worker] %s ack FAILED: id=%s err=%v", name, msg.ID, err)
		return
	}

	log.Printf("[Worker] %s handled OK: type=%s id=%s duration=%v", name, msg.Event.Type, msg.ID, time.Since(start))
}
