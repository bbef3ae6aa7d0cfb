package delivery

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/shopspring/decimal"
)

// ZoneRequest creates or replaces a delivery zone
type ZoneRequest struct {
	Name                  string           `json:"name" binding:"required,min=1,max=100"`
	PostcodePrefixes      []string         `json:"postcode_prefixes" binding:"required,min=1,dive,min=1,max=8"`
	DeliveryFee           decimal.Decimal  `json:"delivery_fee"`
	MinimumOrder          decimal.Decimal  `json:"minimum_order"`
	FreeDeliveryThreshold *decimal.Decimal `json:"free_delivery_threshold"`
	Active                *bool            `json:"active"`
}

// ZoneResponse represents a delivery zone
type ZoneResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	PostcodePrefixes      []string         `json:"postcode_prefixes"`
	DeliveryFee           decimal.Decimal  `json:"delivery_fee"`
	MinimumOrder          decimal.Decimal  `json:"minimum_order"`
	FreeDeliveryThreshold *decimal.Decimal `json:"free_delivery_threshold,omitempty"`
	Active                bool             `json:"active"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ToZoneResponse converts a domain zone
func ToZoneResponse(z *delivery.Zone) ZoneResponse {
	return ZoneResponse{
		ID:                    z.ID,
		Name:                  z.Name,
		PostcodePrefixes:      z.PostcodePrefixes,
		DeliveryFee:           z.DeliveryFee,
		MinimumOrder:          z.MinimumOrder,
		FreeDeliveryThreshold: z.FreeDeliveryThreshold,
		Active:                z.Active,
		CreatedAt:             z.CreatedAt,
		UpdatedAt:             z.UpdatedAt,
	}
}

// SlotRequest creates or replaces a delivery slot
type SlotRequest struct {
	ZoneID   uuid.UUID `json:"zone_id" binding:"required"`
	StartAt  time.Time `json:"start_at" binding:"required"`
	EndAt    time.Time `json:"end_at" binding:"required,gtfield=StartAt"`
	Capacity int       `json:"capacity" binding:"required,min=1,max=1000"`
	Active   *bool     `json:"active"`
}

// SlotQuery holds slot listing query parameters. Dates are YYYY-MM-DD in
// the store timezone; To is inclusive.
type SlotQuery struct {
	ZoneID        string `form:"zone_id" binding:"omitempty,uuid"`
	From          string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	AvailableOnly bool   `form:"available"`
}

// WindowRequest is a daily window such as 09:00-11:00
type WindowRequest struct {
	Start string `json:"start" binding:"required,datetime=15:04"`
	End   string `json:"end" binding:"required,datetime=15:04"`
}

// GenerateSlotsRequest creates slots for every day in a date range
type GenerateSlotsRequest struct {
	ZoneID   uuid.UUID       `json:"zone_id" binding:"required"`
	From     string          `json:"from" binding:"required,datetime=2006-01-02"`
	To       string          `json:"to" binding:"required,datetime=2006-01-02"`
	Windows  []WindowRequest `json:"windows" binding:"required,min=1,max=24,dive"`
	Capacity int             `json:"capacity" binding:"required,min=1,max=1000"`
}

// SlotResponse represents a delivery slot
type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	ZoneID    uuid.UUID `json:"zone_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Capacity  int       `json:"capacity"`
	Booked    int       `json:"booked"`
	Remaining int       `json:"remaining"`
	Available bool      `json:"available"`
	Active    bool      `json:"active"`
}

// ToSlotResponse converts a domain slot. Available applies the booking cut-off.
func ToSlotResponse(s *delivery.Slot, now time.Time, cutoff time.Duration) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		ZoneID:    s.ZoneID,
		StartAt:   s.StartAt,
		EndAt:     s.EndAt,
		Capacity:  s.Capacity,
		Booked:    s.Booked,
		Remaining: s.Remaining(),
		Available: s.IsAvailable(now, cutoff),
		Active:    s.Active,
	}
}

// LookupResponse answers "do you deliver to my postcode?"
type LookupResponse struct {
	Postcode string       `json:"postcode"`
	Zone     ZoneResponse `json:"zone"`
}
