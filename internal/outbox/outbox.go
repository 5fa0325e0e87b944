// Package outbox decouples notification side effects from payment and token
// state transitions. Intents are queued at transition time and delivered by a
// background worker with bounded retries; a delivery failure never rolls back
// or blocks the transition that produced it.
package outbox

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSignupAuthorization Kind = "signup_authorization"
	KindPaymentFailed       Kind = "payment_failed"
)

type Message struct {
	ID         uuid.UUID
	Kind       Kind
	Recipient  string
	Reference  string
	PlanType   string
	Amount     int64
	Token      string
	Reason     string
	ExpiresIn  string
	Attempts   int
	EnqueuedAt time.Time
}

// Sender delivers a single message. Implementations report transient
// failures with an error; the outbox handles retry.
type Sender interface {
	Deliver(msg Message) error
}

type Options struct {
	QueueSize   int           // default 64
	MaxAttempts int           // default 3
	RetryDelay  time.Duration // default 30s
}

type Outbox struct {
	sender      Sender
	queue       chan Message
	maxAttempts int
	retryDelay  time.Duration

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func New(sender Sender, opts Options) *Outbox {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 30 * time.Second
	}

	return &Outbox{
		sender:      sender,
		queue:       make(chan Message, opts.QueueSize),
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		done:        make(chan struct{}),
	}
}

func (o *Outbox) Start() {
	o.wg.Add(1)
	go o.run()
}

// Enqueue submits a message for delivery. It never blocks: when the queue is
// full or the outbox is closed the message is dropped with a log line.
func (o *Outbox) Enqueue(msg Message) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}

	select {
	case <-o.done:
		log.Printf("Outbox closed, dropping %s message %s", msg.Kind, msg.ID)
	case o.queue <- msg:
	default:
		log.Printf("Outbox full, dropping %s message %s", msg.Kind, msg.ID)
	}
}

// Close stops the worker. Messages still queued or waiting on a retry timer
// are abandoned.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		close(o.done)
	})
	o.wg.Wait()
}

func (o *Outbox) run() {
	defer o.wg.Done()

	for {
		select {
		case <-o.done:
			return
		case msg := <-o.queue:
			o.deliver(msg)
		}
	}
}

func (o *Outbox) deliver(msg Message) {
	err := o.sender.Deliver(msg)
	if err == nil {
		return
	}

	msg.Attempts++
	if msg.Attempts >= o.maxAttempts {
		log.Printf("Giving up on %s message %s after %d attempts: %v", msg.Kind, msg.ID, msg.Attempts, err)
		return
	}

	log.Printf("Delivery of %s message %s failed (attempt %d), retrying in %v: %v",
		msg.Kind, msg.ID, msg.Attempts, o.retryDelay, err)

	time.AfterFunc(o.retryDelay, func() {
		o.Enqueue(msg)
	})
}
