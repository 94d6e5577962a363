package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Deliverer hands decoded events to whatever sends mail to guests.
type Deliverer interface {
    DeliverBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error
    DeliverLoginRequested(ctx context.Context, ev LoginRequestedEvent) error
}

// Consume connects to RabbitMQ, declares both notification queues and feeds
// every message to d.  It reconnects with exponential backoff and returns
// only when ctx is cancelled.  A message that cannot be handled is rejected
// without requeue so one bad payload cannot stall the queue.
func Consume(ctx context.Context, url string, d Deliverer) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, d)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, d Deliverer) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("notify-consumer: set QoS failed: %v", err)
    }

    var wg sync.WaitGroup
    errc := make(chan error, 2)
    for _, q := range []string{BookingConfirmedQueue, LoginRequestedQueue} {
        if err := declare(ch, q); err != nil {
            return err
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        wg.Add(1)
        go func() {
            defer wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case m, ok := <-msgs:
                    if !ok {
                        errc <- errors.New("deliveries channel closed")
                        return
                    }
                    if err := handleMessage(ctx, m.RoutingKey, m.Body, d); err != nil {
                        log.Printf("notify-consumer: handle message failed: %v", err)
                        _ = m.Nack(false, false) // reject, do not requeue to avoid tight loops
                        continue
                    }
                    _ = m.Ack(false)
                }
            }
        }()
    }

    select {
    case <-ctx.Done():
        _ = ch.Close()
        wg.Wait()
        return ctx.Err()
    case err := <-errc:
        _ = ch.Close()
        wg.Wait()
        return err
    }
}

func handleMessage(ctx context.Context, queue string, body []byte, d Deliverer) error {
    switch queue {
    case BookingConfirmedQueue:
        var ev BookingConfirmedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return d.DeliverBookingConfirmed(ctx, ev)
    case LoginRequestedQueue:
        var ev LoginRequestedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return d.DeliverLoginRequested(ctx, ev)
    }
    return fmt.Errorf("unexpected queue %q", queue)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

// FileDeliverer appends one human-readable line per event to
// <Dir>/notifications.log.  It stands in for a mail gateway.
type FileDeliverer struct {
    Dir string

    mu sync.Mutex
}

func (f *FileDeliverer) DeliverBookingConfirmed(_ context.Context, ev BookingConfirmedEvent) error {
    return f.append(fmt.Sprintf("[%s] Booking confirmed | booking_id=%d | confirmation=%s | guest=%q <%s> | show_id=%d | show=%q | date=%s | seat=%s%d | check_in=%s\n",
        ev.BookedAt, ev.BookingID, ev.ConfirmationID, ev.GuestName, ev.GuestEmail, ev.ShowID, ev.ShowName, ev.ShowDate, ev.RowLabel, ev.SeatNumber, ev.CheckInURL))
}

func (f *FileDeliverer) DeliverLoginRequested(_ context.Context, ev LoginRequestedEvent) error {
    return f.append(fmt.Sprintf("[%s] Login link | guest_id=%d | to=%q <%s> | link=%s | expires=%s\n",
        time.Now().UTC().Format(time.RFC3339), ev.GuestID, ev.Name, ev.Email, ev.LoginURL, ev.ExpiresAt))
}

func (f *FileDeliverer) append(line string) error {
    f.mu.Lock()
    defer f.mu.Unlock()

    dir := f.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fh, err := os.OpenFile(filepath.Join(dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer fh.Close()
    if _, err := fh.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
