package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one booking command.  A nil return acknowledges
// the delivery.  A non-nil return rejects it without requeue so the
// broker's dead-letter policy decides what happens next; requeueing
// here would spin a poison message in a tight loop.
type Handler func(ctx context.Context, cmd BookingCommand) error

// StartBookingConsumer connects to the broker, declares the durable
// booking.process queue and consumes commands until the context is
// cancelled.  It runs a reconnect loop with exponential backoff, so a
// broker restart stalls processing instead of killing the worker.
func StartBookingConsumer(ctx context.Context, url string, handle Handler) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(ctx, conn, handle); err != nil {
            _ = conn.Close()
            if errors.Is(err, context.Canceled) {
                return err
            }
            log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(2 * time.Second):
            }
            continue
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, handle Handler) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Cap unacked deliveries so one consumer cannot hoard the queue.
    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("booking-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(CommandQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(CommandQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleDelivery(ctx, d.Body, handle); err != nil {
                log.Printf("booking-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue; DLQ policy owns retries
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleDelivery(ctx context.Context, body []byte, handle Handler) error {
    var cmd BookingCommand
    if err := json.Unmarshal(body, &cmd); err != nil {
        return fmt.Errorf("unmarshal command: %w", err)
    }
    log.Printf("booking-consumer: received command for booking %s", cmd.BookingID)
    return handle(ctx, cmd)
}
