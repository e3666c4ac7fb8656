package queue

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"swamptok/internal/redis"
)

// Message is one stream entry claimed by a consumer.
type Message struct {
	ID     string
	Stream string
	Event  FeedEvent
}

// Consumer reads feed events through a consumer group so workers share the
// stream and crashed deliveries can be replayed.
type Consumer struct {
	client *redis.Client
	group  string
	name   string
}

func NewConsumer(client *redis.Client, group, name string) *Consumer {
	return &Consumer{client: client, group: group, name: name}
}

// EnsureGroup creates the consumer group if it does not exist yet.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, FeedStream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Read blocks for new entries, up to count at a time.
func (c *Consumer) Read(ctx context.Context, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{FeedStream, ">"},
		Count:    count,
		Block:    BlockDuration,
	}).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	return c.toMessages(streams), nil
}

// ReadPending re-reads entries delivered to this consumer but never acked,
// so work interrupted by a crash is not lost.
func (c *Consumer) ReadPending(ctx context.Context, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{FeedStream, "0"},
		Count:    count,
	}).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending: %w", err)
	}

	return c.toMessages(streams), nil
}

// Ack marks a message as processed.
func (c *Consumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, FeedStream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", messageID, err)
	}
	return nil
}

func (c *Consumer) toMessages(streams []goredis.XStream) []Message {
	var messages []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			event, err := ParseFeedEvent(entry.Values)
			if err != nil {
				// Malformed entries are acked away rather than wedging the group.
				c.client.XAck(context.Background(), FeedStream, c.group, entry.ID)
				continue
			}
			messages = append(messages, Message{
				ID:     entry.ID,
				Stream: stream.Stream,
				Event:  event,
			})
		}
	}
	return messages
}
