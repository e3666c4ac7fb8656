package queue

import (
	"fmt"
	"strconv"
	"time"
)

// Stream and consumer group names for feed fan-out events.
const (
	FeedStream    = "events:feed"
	FeedGroup     = "feed-workers"
	MaxStreamLen  = 10000
	BlockDuration = 5 * time.Second
)

// Event types carried on the feed stream. The stream carries graph and post
// lifecycle events only; engagement writes update counters synchronously and
// never fan out.
const (
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
)

// FeedEvent is one entry on the feed stream.
//
// For post events, ActorID is the author and PostID/Timestamp identify the
// post. For follow events, ActorID is the follower and TargetID the followee.
type FeedEvent struct {
	Type      string
	ActorID   int64
	TargetID  int64
	PostID    int64
	Timestamp int64
}

// ToMap flattens the event into the string map Redis streams carry.
func (e FeedEvent) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":      e.Type,
		"actor_id":  strconv.FormatInt(e.ActorID, 10),
		"target_id": strconv.FormatInt(e.TargetID, 10),
		"post_id":   strconv.FormatInt(e.PostID, 10),
		"timestamp": strconv.FormatInt(e.Timestamp, 10),
	}
}

// ParseFeedEvent reconstructs an event from stream entry values.
func ParseFeedEvent(values map[string]interface{}) (FeedEvent, error) {
	var event FeedEvent

	eventType, ok := values["type"].(string)
	if !ok || eventType == "" {
		return event, fmt.Errorf("event missing type field")
	}
	event.Type = eventType

	event.ActorID = parseInt64Field(values, "actor_id")
	event.TargetID = parseInt64Field(values, "target_id")
	event.PostID = parseInt64Field(values, "post_id")
	event.Timestamp = parseInt64Field(values, "timestamp")

	return event, nil
}

func parseInt64Field(values map[string]interface{}, key string) int64 {
	s, ok := values[key].(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
