package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes booking commands to the durable command queue.
// Each publish opens a fresh connection and channel; command volume is
// bounded by intake rate limiting, and a short-lived connection keeps
// the publisher robust against broker restarts without a reconnect
// state machine.
type Publisher struct {
    url string
}

// NewPublisher returns a Publisher that dials the given AMQP URL.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url}
}

// PublishBookingCommand sends the command to the booking.process queue
// via the default exchange.  The queue is declared durable on every
// publish (idempotent) and messages are marked persistent so commands
// survive a broker restart.  Errors are logged and returned; the
// caller decides whether an unpublished command fails the request.
func (p *Publisher) PublishBookingCommand(ctx context.Context, cmd BookingCommand) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("booking-queue: dial failed: %v", err)
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("booking-queue: channel open failed: %v", err)
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        CommandQueueName, // name
        true,             // durable
        false,            // autoDelete
        false,            // exclusive
        false,            // noWait
        nil,              // args
    ); err != nil {
        log.Printf("booking-queue: queue declare failed: %v", err)
        return fmt.Errorf("declare queue: %w", err)
    }

    body, err := json.Marshal(cmd)
    if err != nil {
        return fmt.Errorf("marshal command: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        MessageId:    cmd.BookingID.String(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",               // default exchange
        CommandQueueName, // routing key = queue name
        false,            // mandatory
        false,            // immediate
        pub,
    ); err != nil {
        log.Printf("booking-queue: publish failed: %v", err)
        return fmt.Errorf("publish command: %w", err)
    }

    log.Printf("booking-queue: published command for booking %s (fromQueue=%t)", cmd.BookingID, cmd.FromQueue)
    return nil
}
