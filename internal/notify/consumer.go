package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MaxRetries = 5
	retryDelay = 30 * time.Second
)

// Outcome is what the consumer does with a delivery after handling it.
type Outcome int

const (
	Ack Outcome = iota
	Retry
	DeadLetter
)

// Decide maps a handler result to an outcome. Permanent failures and exhausted
// retries are dead-lettered.
func Decide(err error, retries int) Outcome {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, ErrPermanent), retries >= MaxRetries:
		return DeadLetter
	default:
		return Retry
	}
}

// RetryCount reads the redelivery counter stamped on retried messages.
func RetryCount(headers amqp.Table) int {
	switch v := headers[events.RetryHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

// Decode parses a delivery body. Events without a type are rejected.
func Decode(body []byte) (events.Event, error) {
	var ev events.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if ev.Type == "" {
		return ev, errors.New("event type missing")
	}
	return ev, nil
}

type handler interface {
	Handle(ctx context.Context, ev events.Event) error
}

// Consumer drains the main queue with a fixed worker pool.
type Consumer struct {
	ch          *amqp.Channel
	queues      events.Queues
	handler     handler
	concurrency int
	mu          sync.Mutex // guards publishes to ch from workers
}

func NewConsumer(ch *amqp.Channel, queues events.Queues, h handler, concurrency int) *Consumer {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Consumer{ch: ch, queues: queues, handler: h, concurrency: concurrency}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.concurrency, 0, false); err != nil {
		return err
	}
	msgs, err := c.ch.Consume(c.queues.Main, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	log.Printf("notifier started, queue=%s concurrency=%d", c.queues.Main, c.concurrency)

	jobs := make(chan amqp.Delivery, c.concurrency*2)
	var wg sync.WaitGroup
	wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				c.process(ctx, workerID, d)
			}
		}(i)
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Printf("notifier shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

func (c *Consumer) process(ctx context.Context, workerID int, d amqp.Delivery) {
	ev, err := Decode(d.Body)
	if err != nil {
		log.Printf("❌ worker=%d undecodable message id=%s: %v", workerID, d.MessageId, err)
		_ = d.Nack(false, false)
		return
	}

	retries := RetryCount(d.Headers)
	err = c.handler.Handle(ctx, ev)
	switch Decide(err, retries) {
	case Ack:
		if err := d.Ack(false); err != nil {
			log.Printf("worker=%d ack failed event=%s err=%v", workerID, ev.ID, err)
		}
	case DeadLetter:
		log.Printf("❌ worker=%d event %s %s dead-lettered after %d retries: %v", workerID, ev.Type, ev.ID, retries, err)
		_ = d.Nack(false, false)
	case Retry:
		log.Printf("⚠️  worker=%d event %s %s failed (retry %d): %v", workerID, ev.Type, ev.ID, retries+1, err)
		if perr := c.scheduleRetry(ctx, d, retries+1); perr != nil {
			log.Printf("❌ worker=%d could not schedule retry for %s: %v", workerID, ev.ID, perr)
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
	}
}

// scheduleRetry parks a copy on the retry queue; it expires back onto the main queue.
func (c *Consumer) scheduleRetry(ctx context.Context, d amqp.Delivery, retries int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[events.RetryHeader] = int32(retries)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(pctx, "", c.queues.Retry, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Type:         d.Type,
		Headers:      headers,
		Expiration:   retryExpiration(retries),
		Body:         d.Body,
	})
}

// retryExpiration backs off linearly, in milliseconds as AMQP expects.
func retryExpiration(retries int) string {
	return strconv.FormatInt((time.Duration(retries) * retryDelay).Milliseconds(), 10)
}
