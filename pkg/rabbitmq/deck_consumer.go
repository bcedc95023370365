package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/config"
)

const (
	DeckExchange      = "decks_exchange"
	DeckQueue         = "deck_jobs_queue"
	DeckRoutingKey    = "deck.build"
	deckDLX           = "decks_exchange_dlx"
	deckDLQ           = "deck_jobs_queue_dlq"
	deckDLQRoutingKey = "dlq.deck.build"
)

type DeckConsumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type deckConsumer[T any] struct {
	conn        *amqp.Connection
	cfg         *config.RabbitMQ
	handler     func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	onExhausted func(ctx context.Context, msg amqp.Delivery, dependencies T, cause error)
	numWorkers  int
}

// Consume processes deck build jobs with per-message retry; after the retry
// budget is spent the message is dead-lettered instead of poisoning the
// queue.
func (c deckConsumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(DeckExchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", DeckExchange).Msg("failed to declare exchange")
		return err
	}

	err = ch.ExchangeDeclare(deckDLX, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", deckDLX).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(deckDLQ, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", deckDLQ).Msg("failed to declare dlq")
		return err
	}

	err = ch.QueueBind(dlq.Name, deckDLQRoutingKey, deckDLX, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Msg("failed to bind dlq")
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    deckDLX,
		"x-dead-letter-routing-key": deckDLQRoutingKey,
	}
	q, err := ch.QueueDeclare(DeckQueue, true, false, false, false, args)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", DeckQueue).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, DeckRoutingKey, DeckExchange, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", DeckQueue).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", DeckQueue).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", DeckQueue).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", DeckQueue).
		Str("exchange", DeckExchange).
		Str("routing_key", DeckRoutingKey).
		Int("workers", c.numWorkers).
		Msg("deck consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				operation := func() (string, error) {
					if err := c.handler(ctx, msg, dependencies); err != nil {
						return "", err
					}
					return "", nil
				}

				bo := backoff.NewExponentialBackOff()
				bo.MaxInterval = 10 * time.Second

				_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Msg("deck job failed after all retries")
					if c.onExhausted != nil {
						c.onExhausted(ctx, msg, dependencies, err)
					}
					if nackErr := msg.Nack(false, false); nackErr != nil {
						zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to dlq")
					}
				} else {
					if ackErr := msg.Ack(false); ackErr != nil {
						zerolog.Ctx(ctx).Error().Err(ackErr).Msg("failed to acknowledge message")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}
			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

// NewDeckConsumer builds a consumer that retries handler up to five times
// per message. When the budget is spent, onExhausted runs once with the final
// error before the message is dead-lettered; it may be nil.
func NewDeckConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
	onExhausted func(ctx context.Context, msg amqp.Delivery, dependencies T, cause error),
) DeckConsumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &deckConsumer[T]{
		conn:        conn,
		cfg:         cfg,
		handler:     handler,
		onExhausted: onExhausted,
		numWorkers:  numWorkers,
	}
}
