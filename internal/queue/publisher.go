package queue

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"swamptok/internal/redis"
)

// Publisher appends feed events to the stream.
type Publisher interface {
	Publish(ctx context.Context, event FeedEvent) error
}

type publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) Publisher {
	return &publisher{client: client}
}

// Publish appends the event. MaxLen is approximate so trimming stays cheap.
func (p *publisher) Publish(ctx context.Context, event FeedEvent) error {
	id, err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: FeedStream,
		MaxLen: MaxStreamLen,
		Approx: true,
		Values: event.ToMap(),
	}).Result()
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	log.Printf("[Queue] publish OK: type=%s actor=%d id=%s", event.Type, event.ActorID, id)
	return nil
}
