package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"barber-booking/internal/blocking"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/models"
	"barber-booking/internal/staff"
)

type BlockedDates struct {
	mu    sync.Mutex
	items map[string]models.BlockedDate
}

func NewBlockedDates() *BlockedDates {
	return &BlockedDates{items: make(map[string]models.BlockedDate)}
}

func (r *BlockedDates) GetByDate(_ context.Context, date string) (models.BlockedDate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bd, ok := r.items[date]
	if !ok {
		return models.BlockedDate{}, blocking.ErrNotFound
	}
	return bd, nil
}

func (r *BlockedDates) Save(_ context.Context, bd models.BlockedDate) (models.BlockedDate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[bd.Date]; ok {
		bd.ID = existing.ID
		bd.CreatedBy = existing.CreatedBy
		bd.CreatedAt = existing.CreatedAt
	}
	bd.Hours = append([]string(nil), bd.Hours...)
	r.items[bd.Date] = bd
	return bd, nil
}

func (r *BlockedDates) List(_ context.Context, fromDate string) ([]models.BlockedDate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.BlockedDate, 0, len(r.items))
	for _, bd := range r.items {
		if fromDate == "" || bd.Date >= fromDate {
			out = append(out, bd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *BlockedDates) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for date, bd := range r.items {
		if bd.ID == id {
			delete(r.items, date)
			return nil
		}
	}
	return blocking.ErrNotFound
}

func (r *BlockedDates) DeleteByDate(_ context.Context, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[date]; !ok {
		return blocking.ErrNotFound
	}
	delete(r.items, date)
	return nil
}

func (r *BlockedDates) DeleteBefore(_ context.Context, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for d := range r.items {
		if d < date {
			delete(r.items, d)
			n++
		}
	}
	return n, nil
}

var _ blocking.Repository = (*BlockedDates)(nil)

// Clients keeps the unique email constraint of the clients collection.
type Clients struct {
	mu     sync.Mutex
	items  map[string]models.Client
	phones map[string]bool
}

func NewClients() *Clients {
	return &Clients{items: make(map[string]models.Client), phones: make(map[string]bool)}
}

// BlockPhone adds phone to the legacy blocklist.
func (r *Clients) BlockPhone(phone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phones[phone] = true
}

func (r *Clients) FindByEmail(_ context.Context, email string) (models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.Email == email {
			return c, nil
		}
	}
	return models.Client{}, clients.ErrNotFound
}

func (r *Clients) GetByID(_ context.Context, id string) (models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return models.Client{}, clients.ErrNotFound
	}
	return c, nil
}

func (r *Clients) Insert(_ context.Context, c models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Email == c.Email {
			return clients.ErrDuplicate
		}
	}
	r.items[c.ID] = c
	return nil
}

func (r *Clients) mutate(id string, fn func(*models.Client)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return clients.ErrNotFound
	}
	fn(&c)
	r.items[id] = c
	return nil
}

func (r *Clients) UpdateContact(_ context.Context, id string, snapshot models.ClientSnapshot, now time.Time) error {
	return r.mutate(id, func(c *models.Client) {
		c.Name = snapshot.Name
		c.Phone = snapshot.Phone
		c.CountryCode = snapshot.CountryCode
		c.UpdatedAt = now
	})
}

func (r *Clients) IncrementTotal(_ context.Context, id string, now time.Time) error {
	return r.mutate(id, func(c *models.Client) {
		c.TotalBookings++
		c.UpdatedAt = now
	})
}

func (r *Clients) DecrementTotal(_ context.Context, id string, now time.Time) error {
	err := r.mutate(id, func(c *models.Client) {
		if c.TotalBookings > 0 {
			c.TotalBookings--
			c.UpdatedAt = now
		}
	})
	if err == clients.ErrNotFound {
		return nil
	}
	return err
}

func (r *Clients) RecordCompletion(_ context.Context, id string, now time.Time) error {
	return r.mutate(id, func(c *models.Client) {
		c.CompletedBookings++
		at := now
		c.LastVisit = &at
		c.UpdatedAt = now
	})
}

func (r *Clients) RecordEmail(_ context.Context, email string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.items {
		if c.Email == email {
			c.EmailsSent++
			at := now
			c.LastEmailAt = &at
			c.UpdatedAt = now
			r.items[id] = c
		}
	}
	return nil
}

func (r *Clients) SetBlocked(_ context.Context, id string, blocked bool, reason, staffID string, now time.Time) (models.Client, error) {
	var out models.Client
	err := r.mutate(id, func(c *models.Client) {
		c.IsBlocked = blocked
		c.UpdatedAt = now
		if blocked {
			at := now
			c.BlockReason = reason
			c.BlockedAt = &at
			c.BlockedBy = staffID
		} else {
			c.BlockReason = ""
			c.BlockedAt = nil
			c.BlockedBy = ""
		}
		out = *c
	})
	return out, err
}

func (r *Clients) filtered(filter clients.ListFilter) []models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Client, 0, len(r.items))
	for _, c := range r.items {
		if filter.BlockedOnly && !c.IsBlocked {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r *Clients) List(_ context.Context, filter clients.ListFilter, limit, offset int64) ([]models.Client, error) {
	items := r.filtered(filter)
	if offset >= int64(len(items)) {
		return []models.Client{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items, nil
}

func (r *Clients) Count(_ context.Context, filter clients.ListFilter) (int64, error) {
	return int64(len(r.filtered(filter))), nil
}

func (r *Clients) IsPhoneBlocked(_ context.Context, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phones[phone], nil
}

var _ clients.Repository = (*Clients)(nil)

type Services struct {
	mu    sync.Mutex
	items map[int]models.Service
}

func NewServices(items ...models.Service) *Services {
	r := &Services{items: make(map[int]models.Service)}
	for _, s := range items {
		r.items[s.ID] = s
	}
	return r
}

func (r *Services) List(_ context.Context) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Service, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Services) GetByID(_ context.Context, id int) (models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return models.Service{}, catalog.ErrServiceNotFound
	}
	return s, nil
}

func (r *Services) NextID(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 1
	for id := range r.items {
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

func (r *Services) Create(_ context.Context, svc models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.Name == svc.Name || s.Slug == svc.Slug || s.ID == svc.ID {
			return catalog.ErrDuplicateName
		}
	}
	r.items[svc.ID] = svc
	return nil
}

func (r *Services) Update(_ context.Context, svc models.Service) (models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[svc.ID]
	if !ok {
		return models.Service{}, catalog.ErrServiceNotFound
	}
	svc.CreatedAt = existing.CreatedAt
	for _, s := range r.items {
		if s.ID != svc.ID && (s.Name == svc.Name || s.Slug == svc.Slug) {
			return models.Service{}, catalog.ErrDuplicateName
		}
	}
	r.items[svc.ID] = svc
	return svc, nil
}

var _ catalog.Repository = (*Services)(nil)

type Users struct {
	mu    sync.Mutex
	items map[string]models.User
}

func NewUsers() *Users {
	return &Users{items: make(map[string]models.User)}
}

func (r *Users) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, staff.ErrNotFound
}

func (r *Users) Insert(_ context.Context, u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Username == u.Username {
			return staff.ErrDuplicate
		}
	}
	r.items[u.ID] = u
	return nil
}

func (r *Users) SetPassword(_ context.Context, id, hash string, now time.Time) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.items[id]
	if !ok {
		return models.User{}, staff.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = now
	r.items[id] = u
	return u, nil
}

func (r *Users) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

var _ staff.Repository = (*Users)(nil)
