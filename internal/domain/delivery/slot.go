package delivery

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// ErrSlotFull is returned when a slot has no remaining capacity
var ErrSlotFull = shared.NewDomainError("SLOT_FULL", "This delivery slot is fully booked")

// ErrSlotUnavailable is returned when a slot is inactive or past its booking cut-off
var ErrSlotUnavailable = shared.NewDomainError("SLOT_UNAVAILABLE", "This delivery slot can no longer be booked")

// DefaultBookingCutoff is how long before the slot starts booking closes
const DefaultBookingCutoff = 2 * time.Hour

// Slot is a delivery time window in a zone. Booked never exceeds Capacity.
type Slot struct {
	shared.BaseAggregateRoot
	ZoneID   uuid.UUID
	StartAt  time.Time
	EndAt    time.Time
	Capacity int
	Booked   int
	Active   bool
}

// NewSlot creates an empty, active slot
func NewSlot(zoneID uuid.UUID, start, end time.Time, capacity int) (*Slot, error) {
	if zoneID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ZONE", "Slot zone is required")
	}
	if err := validateWindow(start, end, capacity); err != nil {
		return nil, err
	}
	return &Slot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ZoneID:            zoneID,
		StartAt:           start.UTC(),
		EndAt:             end.UTC(),
		Capacity:          capacity,
		Active:            true,
	}, nil
}

// Update changes the window and capacity. Capacity may not drop below the
// number of orders already booked.
func (s *Slot) Update(start, end time.Time, capacity int) error {
	if err := validateWindow(start, end, capacity); err != nil {
		return err
	}
	if capacity < s.Booked {
		return shared.NewDomainErrorf("INVALID_CAPACITY",
			"Capacity %d is below the %d orders already booked", capacity, s.Booked)
	}
	s.StartAt = start.UTC()
	s.EndAt = end.UTC()
	s.Capacity = capacity
	s.IncrementVersion()
	return nil
}

// Book reserves one order in the slot
func (s *Slot) Book(now time.Time, cutoff time.Duration) error {
	if !s.Active || !now.Add(cutoff).Before(s.StartAt) {
		return ErrSlotUnavailable
	}
	if s.Booked >= s.Capacity {
		return ErrSlotFull
	}
	s.Booked++
	s.IncrementVersion()
	return nil
}

// Release frees one booking, for example when an order is cancelled
func (s *Slot) Release() {
	if s.Booked > 0 {
		s.Booked--
		s.IncrementVersion()
	}
}

// Remaining returns the number of orders that can still be booked
func (s *Slot) Remaining() int {
	if s.Booked >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Booked
}

// IsAvailable reports whether the slot can be booked at the given time
func (s *Slot) IsAvailable(now time.Time, cutoff time.Duration) bool {
	return s.Active && s.Remaining() > 0 && now.Add(cutoff).Before(s.StartAt)
}

// Activate opens the slot for booking
func (s *Slot) Activate() {
	s.Active = true
	s.IncrementVersion()
}

// Deactivate closes the slot for new bookings; existing bookings are kept
func (s *Slot) Deactivate() {
	s.Active = false
	s.IncrementVersion()
}

// Window is a daily delivery window used to generate slots, in minutes from
// local midnight
type Window struct {
	StartMinute int
	EndMinute   int
}

// GenerateSlots creates one slot per window per day from the first day to
// the last day inclusive. Days are interpreted in loc.
func GenerateSlots(zoneID uuid.UUID, firstDay, lastDay time.Time, windows []Window, capacity int, loc *time.Location) ([]*Slot, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(windows) == 0 {
		return nil, shared.NewDomainError("INVALID_WINDOWS", "At least one delivery window is required")
	}
	start := time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, loc)
	end := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 0, 0, 0, 0, loc)
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_RANGE", "Last day must not be before first day")
	}
	if end.After(start.AddDate(0, 0, 62)) {
		return nil, shared.NewDomainError("INVALID_RANGE", "Slots can be generated for at most 62 days at a time")
	}

	var slots []*Slot
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, w := range windows {
			if w.StartMinute < 0 || w.EndMinute > 24*60 || w.EndMinute <= w.StartMinute {
				return nil, shared.NewDomainErrorf("INVALID_WINDOWS", "Invalid window %d-%d", w.StartMinute, w.EndMinute)
			}
			slot, err := NewSlot(zoneID, wallClock(day, w.StartMinute, loc), wallClock(day, w.EndMinute, loc), capacity)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// wallClock returns minute-of-day on day as local clock time, so windows
// keep their hours across DST changes. Minute 1440 is the next midnight.
func wallClock(day time.Time, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc)
}

func validateWindow(start, end time.Time, capacity int) error {
	if start.IsZero() || end.IsZero() {
		return shared.NewDomainError("INVALID_WINDOW", "Slot start and end are required")
	}
	if !end.After(start) {
		return shared.NewDomainError("INVALID_WINDOW", "Slot end must be after its start")
	}
	if capacity < 1 {
		return shared.NewDomainError("INVALID_CAPACITY", "Slot capacity must be at least 1")
	}
	return nil
}
