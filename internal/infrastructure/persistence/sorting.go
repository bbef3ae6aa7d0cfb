package persistence

import (
	"strings"

	"github.com/grocer/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortRule whitelists the columns a listing may be ordered by. Unknown or
// empty sort keys fall back to the default ordering, and id is
// always appended so pages stay stable when sort values tie.
type sortRule struct {
	columns  map[string]string
	fallback []clause.OrderByColumn
}

func newSortRule(fallback string, desc bool, columns ...string) sortRule {
	s := sortRule{columns: make(map[string]string, len(columns))}
	for _, c := range columns {
		s.columns[c] = c
	}
	s.fallback = []clause.OrderByColumn{{Column: clause.Column{Name: fallback}, Desc: desc}}
	return s
}

// then appends a secondary default ordering
func (s sortRule) then(column string, desc bool) sortRule {
	s.fallback = append(append([]clause.OrderByColumn{}, s.fallback...),
		clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	return s
}

// orderBy returns the ORDER BY terms for the filter. An explicit key sorts
// descending unless asc is requested.
func (s sortRule) orderBy(filter shared.Filter) []clause.OrderByColumn {
	cols := s.fallback
	if col, ok := s.columns[strings.TrimSpace(filter.OrderBy)]; ok {
		desc := !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc")
		cols = []clause.OrderByColumn{{Column: clause.Column{Name: col}, Desc: desc}}
	}
	return append(append([]clause.OrderByColumn{}, cols...), clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func (s sortRule) apply(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return query.Clauses(clause.OrderBy{Columns: s.orderBy(filter)})
}

var (
	productSort  = newSortRule("created_at", true, "created_at", "updated_at", "name", "price", "stock", "sku")
	categorySort = newSortRule("sort_order", false, "created_at", "name", "sort_order").then("name", false)
	orderSort    = newSortRule("created_at", true, "created_at", "updated_at", "total", "status", "slot_start")
	voucherSort  = newSortRule("created_at", true, "created_at", "code", "used_count", "valid_to")
	zoneSort     = newSortRule("name", false, "created_at", "name", "delivery_fee")
	userSort     = newSortRule("created_at", true, "created_at", "email", "name", "last_login_at")
)
