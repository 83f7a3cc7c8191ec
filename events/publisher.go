// Package events publishes user activity (new posts, comments, follows) to
// Kafka so other services can react without polling the database.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cppla/yatube/config"
)

// Event types.
const (
	PostCreated    = "post_created"
	PostEdited     = "post_edited"
	CommentCreated = "comment_created"
	Followed       = "followed"
	Unfollowed     = "unfollowed"
)

// Event is one activity record. TargetID is the followed author for follow
// events and zero otherwise.
type Event struct {
	Type     string    `json:"type"`
	ActorID  uint      `json:"actor_id"`
	PostID   uint      `json:"post_id,omitempty"`
	TargetID uint      `json:"target_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// KafkaWriter is the subset of *kafka.Writer used here.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by actor, so one
// user's activity stays ordered within a partition.
type KafkaPublisher struct {
	writer KafkaWriter
}

func NewKafkaPublisher(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.ActorID), 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher when brokers are configured, NopPublisher otherwise.
func New(cfg config.AppConfig) Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(newWriter(cfg))
}

// flushInterval bounds how long a request waits for its event batch.
const flushInterval = 5 * time.Millisecond

// newWriter builds a synchronous writer that flushes every event on its own.
func newWriter(cfg config.AppConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              1,
		BatchTimeout:           flushInterval,
		WriteTimeout:           cfg.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
	}
}
