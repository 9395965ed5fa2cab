// Package iot publishes hardware commands to kickboards over the broker.
package iot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const commandExchange = "kickboard.commands"

// Dial connects to the broker with a bounded retry, since the broker often
// comes up after the sweeper in a fresh deployment.
func Dial(url string, logger *slog.Logger) (*amqp091.Connection, *amqp091.Channel, error) {
	var (
		conn *amqp091.Connection
		ch   *amqp091.Channel
		err  error
	)
	for i := 0; i < 10; i++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			ch, err = conn.Channel()
			if err == nil {
				return conn, ch, nil
			}
			conn.Close()
		}
		logger.Warn("broker not ready, retrying", "attempt", i+1, "error", err)
		time.Sleep(3 * time.Second)
	}
	return nil, nil, fmt.Errorf("connect to broker: %w", err)
}

type command struct {
	Command  string    `json:"command"`
	IssuedAt time.Time `json:"issuedAt"`
}

// CommandBus publishes fire-and-forget commands keyed by kickboard code.
type CommandBus struct {
	ch     *amqp091.Channel
	logger *slog.Logger
}

func NewCommandBus(ch *amqp091.Channel, logger *slog.Logger) (*CommandBus, error) {
	err := ch.ExchangeDeclare(commandExchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare command exchange: %w", err)
	}
	return &CommandBus{ch: ch, logger: logger}, nil
}

// Stop tells the device to cut power. No acknowledgement is awaited; the
// device applies the command on its next report cycle.
func (b *CommandBus) Stop(ctx context.Context, kickboardCode string) error {
	body, err := json.Marshal(command{Command: "stop", IssuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	err = b.ch.PublishWithContext(ctx, commandExchange, kickboardCode, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish stop for %s: %w", kickboardCode, err)
	}
	b.logger.Info("stop command issued", "kickboard", kickboardCode)
	return nil
}
