package booking

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"barber-booking/internal/cache"
	"barber-booking/internal/slotlock"
)

const sessionKeyPrefix = "reservation:session:"

// Session tracks one client's pass through the reservation flow. Its token
// is also the holder of the slot lock it created.
type Session struct {
	Token         string    `json:"token"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	ServiceID     int       `json:"serviceId"`
	LockExpiresAt time.Time `json:"lockExpiresAt"`
	BookingID     string    `json:"bookingId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (s Session) lockHandle() slotlock.Handle {
	return slotlock.Handle{
		Key:       slotlock.Key{Date: s.Date, Time: s.Time, ServiceID: s.ServiceID},
		Holder:    s.Token,
		ExpiresAt: s.LockExpiresAt,
	}
}

type Sessions struct {
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(c cache.Cache, ttl time.Duration) *Sessions {
	return &Sessions{cache: c, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func (s *Sessions) Save(ctx context.Context, sess Session) error {
	remaining := sess.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return ErrSessionExpired
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKeyPrefix+sess.Token, raw, remaining)
}

func (s *Sessions) Load(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrSessionExpired
	}
	raw, ok, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrSessionExpired
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, ErrSessionExpired
	}
	if !s.now().Before(sess.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}
