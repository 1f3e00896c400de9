package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []skafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeChannel struct {
	declared string
	sent     []amqp.Publishing
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.declared = name
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestKafkaProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaProducerWithWriter(w)

	err := p.Publish(context.Background(), "ad-1", ListingEvent{Type: "shopper_ad.request_help", AdID: "ad-1"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "ad-1", string(w.msgs[0].Key))

	var got ListingEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, "shopper_ad.request_help", got.Type)
}

func TestQueuePublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewQueuePublisherWithChannel(ch, "bagasi.push")
	require.NoError(t, err)
	require.Equal(t, "bagasi.push", ch.declared)

	require.NoError(t, p.Publish(context.Background(), "n-1", map[string]string{"title": "hi"}))
	require.Len(t, ch.sent, 1)
	require.Equal(t, "n-1", ch.sent[0].MessageId)
	require.Equal(t, amqp.Persistent, ch.sent[0].DeliveryMode)
	require.JSONEq(t, `{"title":"hi"}`, string(ch.sent[0].Body))
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	bad := NewKafkaProducerWithWriter(&fakeWriter{err: errors.New("broker down")})
	good := &fakeWriter{}
	m := Multi{bad, NewKafkaProducerWithWriter(good)}

	err := m.Publish(context.Background(), "k", "v")
	require.Error(t, err)
	require.Len(t, good.msgs, 1)
}
