package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/duebook/internal/domain"
)

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	keys       []string
	messages   []amqp.Publishing
	closed     bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if c.declareErr != nil {
		return c.declareErr
	}
	c.declared = append(c.declared, name+"/"+kind)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}

	_, err := newAMQPPublisher(ch, "duebook.events")
	require.NoError(t, err)
	assert.Equal(t, []string{"duebook.events/topic"}, ch.declared)
}

func TestAMQPPublisherDeclareFailure(t *testing.T) {
	_, err := newAMQPPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "duebook.events")
	assert.ErrorContains(t, err, "declare exchange")
}

func TestAMQPPublisherRoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "duebook.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), &domain.OutboxEvent{
		ID:        "evt-1",
		EventType: domain.EventTypeOccurrenceSettled,
		CreatedAt: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, ch.messages, 1)
	assert.Equal(t, []string{"duebook.events/occurrence.settled"}, ch.keys)
	msg := ch.messages[0]
	assert.Equal(t, "evt-1", msg.MessageId)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Contains(t, string(msg.Body), `"type":"occurrence.settled"`)
}

func TestAMQPPublisherWrapsPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	p, err := newAMQPPublisher(&fakeChannel{publishErr: boom}, "duebook.events")
	require.NoError(t, err)

	err = p.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1", EventType: domain.EventTypeObligationCreated})
	assert.ErrorIs(t, err, boom)
}

func TestAMQPPublisherClose(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "duebook.events")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
