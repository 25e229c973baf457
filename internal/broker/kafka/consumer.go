package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc обрабатывает одно сообщение. Ошибка останавливает Consume без commit.
type HandlerFunc func(ctx context.Context, key, value []byte) error

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// MaxWait: сколько reader ждёт новых сообщений за один fetch.
	MaxWait time.Duration
}

type Consumer struct {
	r         messageReader
	topic     string
	processed atomic.Int64
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	rc := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		MaxWait:           cfg.MaxWait,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		// новая группа читает с начала: регистрации до первого старта API не теряются
		StartOffset: kafka.FirstOffset,
	}
	if cfg.GroupID != "" {
		rc.GroupTopics = []string{cfg.Topic}
	} else {
		rc.Topic = cfg.Topic
	}
	return &Consumer{r: kafka.NewReader(rc), topic: cfg.Topic}
}

func newConsumerWithReader(r messageReader, topic string) *Consumer {
	return &Consumer{r: r, topic: topic}
}

func (c *Consumer) Topic() string { return c.topic }

// Processed: сколько сообщений обработано и закоммичено этим consumer.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume читает сообщения, пока не отменён ctx или handler не вернул ошибку.
// Commit только после успешного handler, так что упавшее сообщение перечитается.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrapf(err, "fetch message from %s", c.topic)
		}
		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			return errors.Wrapf(err, "handle %s[%d]@%d", msg.Topic, msg.Partition, msg.Offset)
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return errors.Wrapf(err, "commit %s[%d]@%d", msg.Topic, msg.Partition, msg.Offset)
		}
		c.processed.Add(1)
	}
}
