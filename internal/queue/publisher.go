package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const (
    dialTimeout   = 5 * time.Second
    redialBackoff = 2 * time.Second
)

// ErrBrokerDown is returned without dialling while the publisher backs off
// after a failed connection attempt.
var ErrBrokerDown = errors.New("rabbitmq: broker unavailable")

// Publisher publishes events to RabbitMQ over one long-lived connection.  The
// connection is dialled lazily and re-dialled after it drops, so a broker
// outage at startup only costs the notifications sent meanwhile.  Publisher
// is safe for concurrent use.  Every publish is bounded by its context: a
// caller never waits on the broker, or on another caller's dial, past its
// own deadline.
type Publisher struct {
    url     string
    backoff time.Duration

    sem       chan struct{} // one slot; guards the fields below
    conn      *amqp.Connection
    ch        *amqp.Channel
    downUntil time.Time
}

// NewPublisher returns a publisher for the broker at url.  No connection is
// made until the first publish.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url, backoff: redialBackoff, sem: make(chan struct{}, 1)}
}

// PublishBookingConfirmed publishes ev to the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
    return p.publish(ctx, BookingConfirmedQueue, ev)
}

// PublishLoginRequested publishes ev to the guest.login_requested queue.
func (p *Publisher) PublishLoginRequested(ctx context.Context, ev LoginRequestedEvent) error {
    return p.publish(ctx, LoginRequestedQueue, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    if err := p.lock(ctx); err != nil {
        return fmt.Errorf("publish to %s: %w", queue, err)
    }
    defer p.unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        if !errors.Is(err, ErrBrokerDown) {
            log.Printf("rabbitmq: connect failed: %v", err)
        }
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
        p.reset()
        return err
    }
    return nil
}

// lock takes the connection slot unless ctx ends first.
func (p *Publisher) lock(ctx context.Context) error {
    select {
    case p.sem <- struct{}{}:
    case <-ctx.Done():
        return ctx.Err()
    }
    if err := ctx.Err(); err != nil {
        <-p.sem
        return err
    }
    return nil
}

func (p *Publisher) unlock() { <-p.sem }

// channel returns an open channel, dialling and declaring the queues when
// needed.  Callers hold the slot.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if time.Now().Before(p.downUntil) {
        return nil, ErrBrokerDown
    }

    conn, ch, err := p.open(ctx)
    if err != nil {
        p.downUntil = time.Now().Add(p.backoff)
        return nil, err
    }
    p.conn, p.ch, p.downUntil = conn, ch, time.Time{}
    return ch, nil
}

func (p *Publisher) open(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: dialContext(ctx, dialTimeout)})
    if err != nil {
        return nil, nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("channel open: %w", err)
    }
    for _, q := range []string{BookingConfirmedQueue, LoginRequestedQueue} {
        if err := declare(ch, q); err != nil {
            _ = ch.Close()
            _ = conn.Close()
            return nil, nil, err
        }
    }
    return conn, ch, nil
}

// dialContext works like amqp.DefaultDial but also stops at ctx's deadline.
// The deadline covers the AMQP handshake; the client clears it once the
// connection is open.
func dialContext(ctx context.Context, timeout time.Duration) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        deadline := time.Now().Add(timeout)
        if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
            deadline = d
        }
        d := net.Dialer{Deadline: deadline}
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        if err := conn.SetDeadline(deadline); err != nil {
            _ = conn.Close()
            return nil, err
        }
        return conn, nil
    }
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.sem <- struct{}{}
    defer p.unlock()
    var err error
    if p.ch != nil {
        err = p.ch.Close()
    }
    if p.conn != nil {
        if cerr := p.conn.Close(); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
            err = cerr
        }
    }
    p.ch, p.conn = nil, nil
    return err
}

// declare makes sure queue exists (idempotent). Durable so messages survive
// broker restarts.
func declare(ch *amqp.Channel, queue string) error {
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare %s: %w", queue, err)
    }
    return nil
}
