// Package delivery contains the delivery zone and slot use cases.
package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ErrZoneInUse is returned when deleting a zone that still has slots
var ErrZoneInUse = shared.NewDomainError("ZONE_IN_USE", "Zone still has delivery slots; delete them first")

// ZoneService manages delivery zones and postcode lookup
type ZoneService struct {
	zones  delivery.ZoneRepository
	slots  delivery.SlotRepository
	logger *zap.Logger
}

// NewZoneService creates a new ZoneService
func NewZoneService(zones delivery.ZoneRepository, slots delivery.SlotRepository, logger *zap.Logger) *ZoneService {
	return &ZoneService{zones: zones, slots: slots, logger: logger}
}

// Create adds a delivery zone
func (s *ZoneService) Create(ctx context.Context, req ZoneRequest) (*ZoneResponse, error) {
	zone, err := delivery.NewZone(req.Name, req.PostcodePrefixes, req.DeliveryFee, req.MinimumOrder)
	if err != nil {
		return nil, err
	}
	if err := applyZoneOptions(zone, req); err != nil {
		return nil, err
	}
	if err := s.zones.Save(ctx, zone); err != nil {
		return nil, err
	}
	s.logger.Info("delivery zone created",
		zap.String("zone_id", zone.ID.String()),
		zap.Strings("prefixes", zone.PostcodePrefixes),
	)
	resp := ToZoneResponse(zone)
	return &resp, nil
}

// Update replaces a zone definition
func (s *ZoneService) Update(ctx context.Context, id uuid.UUID, req ZoneRequest) (*ZoneResponse, error) {
	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := zone.Update(req.Name, req.PostcodePrefixes, req.DeliveryFee, req.MinimumOrder); err != nil {
		return nil, err
	}
	if err := applyZoneOptions(zone, req); err != nil {
		return nil, err
	}
	if err := s.zones.Save(ctx, zone); err != nil {
		return nil, err
	}
	resp := ToZoneResponse(zone)
	return &resp, nil
}

func applyZoneOptions(zone *delivery.Zone, req ZoneRequest) error {
	if req.FreeDeliveryThreshold != nil || zone.FreeDeliveryThreshold != nil {
		if err := zone.SetFreeDeliveryThreshold(req.FreeDeliveryThreshold); err != nil {
			return err
		}
	}
	if req.Active != nil && *req.Active != zone.Active {
		if *req.Active {
			zone.Activate()
		} else {
			zone.Deactivate()
		}
	}
	return nil
}

// GetByID returns a zone
func (s *ZoneService) GetByID(ctx context.Context, id uuid.UUID) (*ZoneResponse, error) {
	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToZoneResponse(zone)
	return &resp, nil
}

// List returns zones. Storefront listings only include active zones.
func (s *ZoneService) List(ctx context.Context, page, pageSize int, storefront bool) (shared.Paginated[ZoneResponse], error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = min(pageSize, 100)
	}
	if storefront {
		filter.Filters["active"] = true
	}

	zones, err := s.zones.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ZoneResponse]{}, err
	}
	total, err := s.zones.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ZoneResponse]{}, err
	}
	items := make([]ZoneResponse, len(zones))
	for i := range zones {
		items[i] = ToZoneResponse(&zones[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Delete removes a zone without slots
func (s *ZoneService) Delete(ctx context.Context, id uuid.UUID) error {
	count, err := s.slots.CountByZone(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrZoneInUse
	}
	if err := s.zones.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("delivery zone deleted", zap.String("zone_id", id.String()))
	return nil
}

// Resolve returns the active zone with the longest prefix matching the
// postcode, or DELIVERY_NOT_AVAILABLE
func (s *ZoneService) Resolve(ctx context.Context, postcode string) (*delivery.Zone, valueobject.Postcode, error) {
	pc, err := valueobject.NewPostcode(postcode)
	if err != nil {
		return nil, pc, err
	}
	zones, err := s.zones.FindActive(ctx)
	if err != nil {
		return nil, pc, err
	}
	zone, err := delivery.ResolveZone(zones, pc)
	if err != nil {
		return nil, pc, err
	}
	return zone, pc, nil
}

// Lookup is the storefront postcode check
func (s *ZoneService) Lookup(ctx context.Context, postcode string) (*LookupResponse, error) {
	zone, pc, err := s.Resolve(ctx, postcode)
	if err != nil {
		return nil, err
	}
	return &LookupResponse{Postcode: pc.String(), Zone: ToZoneResponse(zone)}, nil
}
