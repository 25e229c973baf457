package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs      []kafka.Message
	err       error
	i         int
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_HandlesAndCommitsEachMessage(t *testing.T) {
	fr := &fakeReader{
		msgs: []kafka.Message{
			{Topic: "package.registered", Key: []byte("GL1"), Value: []byte(`{"tracking_number":"GL1"}`)},
			{Topic: "package.registered", Key: []byte("GL2"), Value: []byte(`{"tracking_number":"GL2"}`), Offset: 1},
		},
		err: errors.New("broker gone"),
	}
	c := newConsumerWithReader(fr, "package.registered")

	var keys []string
	err := c.Consume(context.Background(), func(ctx context.Context, k, v []byte) error {
		require.NotNil(t, ctx)
		keys = append(keys, string(k))
		return nil
	})
	require.ErrorContains(t, err, "fetch message from package.registered")
	require.Equal(t, []string{"GL1", "GL2"}, keys)
	require.Len(t, fr.committed, 2)
	require.Equal(t, int64(2), c.Processed())
}

func TestConsumer_HandlerErrorStopsWithoutCommit(t *testing.T) {
	fr := &fakeReader{msgs: []kafka.Message{{Topic: "package.registered", Partition: 3, Offset: 42, Key: []byte("GL1")}}}
	c := newConsumerWithReader(fr, "package.registered")

	want := errors.New("provider down")
	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return want })
	require.ErrorIs(t, err, want)
	require.ErrorContains(t, err, "package.registered[3]@42")
	// без commit сообщение перечитается после рестарта
	require.Empty(t, fr.committed)
	require.Zero(t, c.Processed())
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	c := newConsumerWithReader(&fakeReader{}, "package.registered")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Consume(ctx, func(context.Context, []byte, []byte) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewConsumer_Close(t *testing.T) {
	c := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:0"}, Topic: "package.registered", GroupID: "glexpress-notifier"})
	require.Equal(t, "package.registered", c.Topic())
	require.NoError(t, c.Close())
}
