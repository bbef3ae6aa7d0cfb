package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrSlotInUse     = shared.NewDomainError("SLOT_IN_USE", "Slot has bookings and cannot be deleted; deactivate it instead")
	ErrUnknownZone   = shared.NewDomainError("INVALID_ZONE", "Delivery zone not found")
	ErrInvalidDate   = shared.NewDomainError("INVALID_INPUT", "Dates must use the YYYY-MM-DD format")
	ErrInvalidWindow = shared.NewDomainError("INVALID_WINDOWS", "Windows must use the HH:MM format")
)

// defaultSlotHorizon is how far ahead slots are listed when no range is given
const defaultSlotHorizon = 14 * 24 * time.Hour

// SlotConfig holds slot booking rules
type SlotConfig struct {
	// BookingCutoff closes a slot this long before it starts
	BookingCutoff time.Duration
	// Location is the store timezone used to interpret dates and windows
	Location *time.Location
}

// SlotService manages delivery slots
type SlotService struct {
	slots  delivery.SlotRepository
	zones  delivery.ZoneRepository
	config SlotConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSlotService creates a new SlotService
func NewSlotService(slots delivery.SlotRepository, zones delivery.ZoneRepository, config SlotConfig, logger *zap.Logger) *SlotService {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.BookingCutoff < 0 {
		config.BookingCutoff = delivery.DefaultBookingCutoff
	}
	return &SlotService{slots: slots, zones: zones, config: config, logger: logger, now: time.Now}
}

// List returns slots in a zone and date range. Storefront listings hide
// slots that are inactive, full or past the booking cut-off.
func (s *SlotService) List(ctx context.Context, q SlotQuery, storefront bool) ([]SlotResponse, error) {
	now := s.now()
	query := delivery.SlotQuery{AvailableOnly: q.AvailableOnly || storefront}

	if q.ZoneID != "" {
		id, err := uuid.Parse(q.ZoneID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "zone_id must be a UUID")
		}
		query.ZoneID = &id
	}
	if q.From != "" {
		from, err := s.parseDay(q.From)
		if err != nil {
			return nil, err
		}
		query.From = from
	} else {
		query.From = now
	}
	if q.To != "" {
		to, err := s.parseDay(q.To)
		if err != nil {
			return nil, err
		}
		query.To = to.AddDate(0, 0, 1)
	} else {
		query.To = query.From.Add(defaultSlotHorizon)
	}
	if !query.To.After(query.From) {
		return nil, shared.NewDomainError("INVALID_RANGE", "to must not be before from")
	}

	slots, err := s.slots.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		resp := ToSlotResponse(&slots[i], now, s.config.BookingCutoff)
		if storefront && !resp.Available {
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetByID returns a slot
func (s *SlotService) GetByID(ctx context.Context, id uuid.UUID) (*SlotResponse, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSlotResponse(slot, s.now(), s.config.BookingCutoff)
	return &resp, nil
}

// Create adds a single slot
func (s *SlotService) Create(ctx context.Context, req SlotRequest) (*SlotResponse, error) {
	if err := s.checkZone(ctx, req.ZoneID); err != nil {
		return nil, err
	}
	slot, err := delivery.NewSlot(req.ZoneID, req.StartAt, req.EndAt, req.Capacity)
	if err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		slot.Deactivate()
	}
	if err := s.slots.Save(ctx, slot); err != nil {
		return nil, err
	}
	resp := ToSlotResponse(slot, s.now(), s.config.BookingCutoff)
	return &resp, nil
}

// Update changes a slot window, capacity or active flag. Capacity can not
// drop below existing bookings.
func (s *SlotService) Update(ctx context.Context, id uuid.UUID, req SlotRequest) (*SlotResponse, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := slot.Update(req.StartAt, req.EndAt, req.Capacity); err != nil {
		return nil, err
	}
	if req.Active != nil && *req.Active != slot.Active {
		if *req.Active {
			slot.Activate()
		} else {
			slot.Deactivate()
		}
	}
	if err := s.slots.Save(ctx, slot); err != nil {
		return nil, err
	}
	resp := ToSlotResponse(slot, s.now(), s.config.BookingCutoff)
	return &resp, nil
}

// Delete removes an unbooked slot
func (s *SlotService) Delete(ctx context.Context, id uuid.UUID) error {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if slot.Booked > 0 {
		return ErrSlotInUse
	}
	return s.slots.Delete(ctx, id)
}

// Generate creates one slot per window for every day in the range
func (s *SlotService) Generate(ctx context.Context, req GenerateSlotsRequest) ([]SlotResponse, error) {
	if err := s.checkZone(ctx, req.ZoneID); err != nil {
		return nil, err
	}
	first, err := s.parseDay(req.From)
	if err != nil {
		return nil, err
	}
	last, err := s.parseDay(req.To)
	if err != nil {
		return nil, err
	}
	windows := make([]delivery.Window, len(req.Windows))
	for i, w := range req.Windows {
		start, err := parseClock(w.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(w.End)
		if err != nil {
			return nil, err
		}
		windows[i] = delivery.Window{StartMinute: start, EndMinute: end}
	}

	slots, err := delivery.GenerateSlots(req.ZoneID, first, last, windows, req.Capacity, s.config.Location)
	if err != nil {
		return nil, err
	}
	if err := s.slots.SaveBatch(ctx, slots); err != nil {
		return nil, err
	}

	s.logger.Info("delivery slots generated",
		zap.String("zone_id", req.ZoneID.String()),
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Int("count", len(slots)),
	)
	now := s.now()
	out := make([]SlotResponse, len(slots))
	for i, slot := range slots {
		out[i] = ToSlotResponse(slot, now, s.config.BookingCutoff)
	}
	return out, nil
}

func (s *SlotService) checkZone(ctx context.Context, zoneID uuid.UUID) error {
	if _, err := s.zones.FindByID(ctx, zoneID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrUnknownZone
		}
		return err
	}
	return nil
}

func (s *SlotService) parseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, s.config.Location)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseClock converts HH:MM to minutes after midnight. 24:00 is accepted as
// the end of the day.
func parseClock(clock string) (int, error) {
	if clock == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, ErrInvalidWindow
	}
	return t.Hour()*60 + t.Minute(), nil
}
