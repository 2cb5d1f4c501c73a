package storetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"barber-booking/internal/models"
	"barber-booking/internal/quota"
)

type usageKey struct {
	email string
	day   string
}

// EmailUsage counts sends per recipient and day.
type EmailUsage struct {
	mu     sync.Mutex
	counts map[usageKey]int
}

func NewEmailUsage() *EmailUsage {
	return &EmailUsage{counts: make(map[usageKey]int)}
}

func (r *EmailUsage) Count(_ context.Context, email, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[usageKey{email, day}], nil
}

func (r *EmailUsage) Increment(_ context.Context, email, day string, _, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[usageKey{email, day}]++
	return nil
}

var _ quota.Repository = (*EmailUsage)(nil)

// Message is one email handed to Outbox.
type Message struct {
	Kind   string
	To     string
	Code   string
	Ref    string
	Reason string
}

// Outbox is a mailer that records every message. Fail makes every send of
// that kind return an error until cleared.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	fail     map[string]error
}

const (
	KindVerification = "verification"
	KindConfirmation = "confirmation"
	KindRejection    = "rejection"
	KindBlocked      = "blocked"
)

func NewOutbox() *Outbox {
	return &Outbox{fail: make(map[string]error)}
}

func (o *Outbox) Fail(kind string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		delete(o.fail, kind)
		return
	}
	o.fail[kind] = err
}

func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Last returns the most recent message of kind.
func (o *Outbox) Last(kind string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].Kind == kind {
			return o.messages[i], true
		}
	}
	return Message{}, false
}

func (o *Outbox) record(m Message) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.fail[m.Kind]; err != nil {
		return "", err
	}
	o.messages = append(o.messages, m)
	return fmt.Sprintf("msg-%d", len(o.messages)), nil
}

func (o *Outbox) SendVerificationCode(_ context.Context, to models.ClientSnapshot, code, bookingRef string) (string, error) {
	return o.record(Message{Kind: KindVerification, To: to.Email, Code: code, Ref: bookingRef})
}

func (o *Outbox) SendConfirmation(_ context.Context, b models.Booking) (string, error) {
	return o.record(Message{Kind: KindConfirmation, To: b.Client.Email, Ref: b.ID})
}

func (o *Outbox) SendRejection(_ context.Context, b models.Booking, reason string) (string, error) {
	return o.record(Message{Kind: KindRejection, To: b.Client.Email, Ref: b.ID, Reason: reason})
}

func (o *Outbox) SendBlockedNotice(_ context.Context, to models.ClientSnapshot, reason string) (string, error) {
	return o.record(Message{Kind: KindBlocked, To: to.Email, Reason: reason})
}
