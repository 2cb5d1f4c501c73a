package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusDeclined  = "declined"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type Service struct {
	ID          int       `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Duration    int       `bson:"duration" json:"duration"`
	Price       int       `bson:"price" json:"price"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ClientSnapshot is copied into a Booking at creation and never rewritten,
// even when the Client profile later changes.
type ClientSnapshot struct {
	Name        string `bson:"name" json:"name"`
	Phone       string `bson:"phone" json:"phone"`
	Email       string `bson:"email" json:"email"`
	CountryCode string `bson:"countryCode,omitempty" json:"countryCode,omitempty"`
}

type Booking struct {
	ID               string         `bson:"_id" json:"id"`
	ClientID         string         `bson:"clientId,omitempty" json:"clientId,omitempty"`
	Client           ClientSnapshot `bson:"client" json:"client"`
	ServiceID        int            `bson:"serviceId" json:"serviceId"`
	ServiceName      string         `bson:"serviceName" json:"serviceName"`
	Duration         int            `bson:"duration" json:"duration"`
	Price            int            `bson:"price" json:"price"`
	Date             string         `bson:"date" json:"date"`
	Time             string         `bson:"time" json:"time"`
	Status           string         `bson:"status" json:"status"`
	Verified         bool           `bson:"verified" json:"verified"`
	VerificationCode string         `bson:"verificationCode,omitempty" json:"-"`
	EmailSendCount   int            `bson:"emailSendCount" json:"emailSendCount"`
	LastEmailSentAt  *time.Time     `bson:"lastEmailSentAt,omitempty" json:"lastEmailSentAt,omitempty"`
	Notes            string         `bson:"notes,omitempty" json:"notes,omitempty"`
	HandledBy        string         `bson:"handledBy,omitempty" json:"handledBy,omitempty"`
	CreatedAt        time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updatedAt"`
	VerifiedAt       *time.Time     `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	ConfirmedAt      *time.Time     `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	DeclinedAt       *time.Time     `bson:"declinedAt,omitempty" json:"declinedAt,omitempty"`
	CancelledAt      *time.Time     `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CompletedAt      *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Occupies reports whether the booking still holds its slot.
func (b Booking) Occupies() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

type Client struct {
	ID                string     `bson:"_id" json:"id"`
	Email             string     `bson:"email" json:"email"`
	Name              string     `bson:"name" json:"name"`
	Phone             string     `bson:"phone" json:"phone"`
	CountryCode       string     `bson:"countryCode,omitempty" json:"countryCode,omitempty"`
	TotalBookings     int        `bson:"totalBookings" json:"totalBookings"`
	CompletedBookings int        `bson:"completedBookings" json:"completedBookings"`
	EmailsSent        int        `bson:"emailsSent" json:"emailsSent"`
	IsBlocked         bool       `bson:"isBlocked" json:"isBlocked"`
	BlockReason       string     `bson:"blockReason,omitempty" json:"blockReason,omitempty"`
	BlockedAt         *time.Time `bson:"blockedAt,omitempty" json:"blockedAt,omitempty"`
	BlockedBy         string     `bson:"blockedBy,omitempty" json:"blockedBy,omitempty"`
	LastVisit         *time.Time `bson:"lastVisit,omitempty" json:"lastVisit,omitempty"`
	LastEmailAt       *time.Time `bson:"lastEmailAt,omitempty" json:"lastEmailAt,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// BlockedPhone is an entry of the legacy phone blocklist.
type BlockedPhone struct {
	ID        string    `bson:"_id" json:"id"`
	Phone     string    `bson:"phone" json:"phone"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Date      string    `bson:"date" json:"date"`
	Time      string    `bson:"time" json:"time"`
	ServiceID int       `bson:"serviceId" json:"serviceId"`
	Holder    string    `bson:"holder" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

func (l SlotLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

type BlockedDate struct {
	ID               string    `bson:"_id" json:"id"`
	Date             string    `bson:"date" json:"date"`
	IsFullDayBlocked bool      `bson:"isFullDayBlocked" json:"isFullDayBlocked"`
	Hours            []string  `bson:"hours" json:"hours"`
	Reason           string    `bson:"reason" json:"reason"`
	CreatedBy        string    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy        string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

type EmailUsage struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Day       string    `bson:"day" json:"day"`
	Count     int       `bson:"count" json:"count"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
