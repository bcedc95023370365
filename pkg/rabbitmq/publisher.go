package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/config"
)

// Publisher enqueues pipeline jobs. The HTTP layer uses it so request
// handling returns as soon as the job row is persisted.
type Publisher interface {
	PublishLectureJob(ctx context.Context, message any) error
	PublishDeckJob(ctx context.Context, message any) error
}

type publisher struct {
	conn *amqp.Connection
	cfg  *config.RabbitMQ
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) Publisher {
	return &publisher{conn: conn, cfg: cfg}
}

func (p *publisher) PublishLectureJob(ctx context.Context, message any) error {
	return p.publish(ctx, LectureExchange, LectureRoutingKey, message)
}

func (p *publisher) PublishDeckJob(ctx context.Context, message any) error {
	return p.publish(ctx, DeckExchange, DeckRoutingKey, message)
}

func (p *publisher) publish(ctx context.Context, exchange, routingKey string, message any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, p.cfg.Kind, true, false, false, false, nil); err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", exchange).Msg("failed to declare exchange")
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
