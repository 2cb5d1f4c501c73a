package storetest

import (
	"sync"
	"time"

	"barber-booking/internal/availability"
	"barber-booking/internal/blocking"
	"barber-booking/internal/booking"
	"barber-booking/internal/cache"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/logging"
	"barber-booking/internal/models"
	"barber-booking/internal/quota"
	"barber-booking/internal/slotlock"
)

// Clock is a settable time source shared by every component of an Env.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Services seeded by NewEnv.
var (
	Haircut = models.Service{ID: 1, Name: "Tuns", Slug: "tuns", Duration: 30, Price: 50}
	Beard   = models.Service{ID: 2, Name: "Barba", Slug: "barba", Duration: 60, Price: 40}
	Full    = models.Service{ID: 3, Name: "Tuns + Barba", Slug: "tuns-plus-barba", Duration: 90, Price: 80}
)

// Env wires the booking engine over in-memory stores and a shared clock.
type Env struct {
	Location *time.Location
	Clock    *Clock

	ServiceRepo  *Services
	BookingRepo  *Bookings
	LockRepo     *SlotLocks
	BlockRepo    *BlockedDates
	ClientRepo   *Clients
	UsageRepo    *EmailUsage
	SessionCache *cache.MemoryCache
	Outbox       *Outbox

	Catalog      *catalog.Service
	Locks        *slotlock.Manager
	Blocks       *blocking.Registry
	Clients      *clients.Registry
	Quota        *quota.Guard
	Sessions     *booking.Sessions
	Availability *availability.Calculator
	Lifecycle    *booking.Lifecycle
}

// NewEnv builds an Env whose clock starts at now. Verification codes are
// always "123456".
func NewEnv(now time.Time) *Env {
	loc := now.Location()
	log := logging.Discard()
	clock := NewClock(now)

	e := &Env{
		Location:     loc,
		Clock:        clock,
		ServiceRepo:  NewServices(Haircut, Beard, Full),
		BookingRepo:  NewBookings(),
		LockRepo:     NewSlotLocks(),
		BlockRepo:    NewBlockedDates(),
		ClientRepo:   NewClients(),
		UsageRepo:    NewEmailUsage(),
		SessionCache: cache.NewMemory().WithClock(clock.Now),
		Outbox:       NewOutbox(),
	}

	e.Catalog = catalog.NewService(e.ServiceRepo, cache.NewNoop(), 0, loc, log)
	e.Locks = slotlock.NewManager(e.LockRepo, slotlock.DefaultTTL, log).WithClock(clock.Now)
	e.Blocks = blocking.NewRegistry(e.BlockRepo, e.BookingRepo, loc, log).WithClock(clock.Now)
	e.Clients = clients.NewRegistry(e.ClientRepo, loc, log).WithClock(clock.Now)
	e.Quota = quota.NewGuard(e.UsageRepo, quota.DefaultLimits(), loc, log).WithClock(clock.Now)
	e.Sessions = booking.NewSessions(e.SessionCache, 20*time.Minute).WithClock(clock.Now)
	e.Availability = availability.NewCalculator(e.Catalog, e.BookingRepo, e.Locks, e.Blocks, loc, log).WithClock(clock.Now)
	e.Lifecycle = booking.NewLifecycle(booking.Deps{
		Repo:     e.BookingRepo,
		Catalog:  e.Catalog,
		Slots:    e.Availability,
		Locks:    e.Locks,
		Sessions: e.Sessions,
		Clients:  e.Clients,
		Quota:    e.Quota,
		Mailer:   e.Outbox,
	}, loc, log).
		WithClock(clock.Now).
		WithCodeGenerator(func() (string, error) { return "123456", nil })
	return e
}
