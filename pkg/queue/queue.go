package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Task kinds for the matching pipeline. The two stages are queued
// independently so each one is retryable on its own.
const (
	TaskMatchStage  = "match_stage"
	TaskInviteStage = "invite_stage"
)

// QueueName is the durable queue the pipeline tasks flow through.
const QueueName = "matching_tasks"

// Task is one unit of background work. The queue delivers at least once;
// consumers must tolerate redelivery.
type Task struct {
	Kind               string `json:"kind"`
	TransportRequestID string `json:"transport_request_id"`
}

// TaskPublisher is the side services use to enqueue pipeline work.
type TaskPublisher interface {
	Publish(ctx context.Context, task Task) error
}

// Handler processes one delivered task. Returning an error requeues the
// delivery.
type Handler func(ctx context.Context, task Task) error

// Client wraps an AMQP connection and channel for the task queue.
type Client struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// NewClient dials the broker and declares the durable task queue.
func NewClient(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}
	if _, err := chn.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("queue: declare: %w", err)
	}
	return &Client{conn: conn, chn: chn}, nil
}

func (c *Client) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// Publish enqueues a task as a persistent JSON message.
func (c *Client) Publish(ctx context.Context, task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("queue: marshal task: %w", err)
	}
	return c.chn.PublishWithContext(
		ctx,
		"",        // default exchange
		QueueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume reads tasks until the context is cancelled, invoking handler for
// each one. A handler error nacks the delivery with requeue; a malformed body
// is dropped (requeueing it can never succeed).
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.chn.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue: consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("queue: delivery channel closed")
			}
			var task Task
			if err := json.Unmarshal(d.Body, &task); err != nil {
				log.Printf("queue: dropping malformed task: %v", err)
				d.Nack(false, false)
				continue
			}
			if err := handler(ctx, task); err != nil {
				log.Printf("queue: task %s for request %s failed: %v", task.Kind, task.TransportRequestID, err)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}
}
