package persistence

import (
	"errors"
	"strings"

	"github.com/grocer/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var onConflictDoNothing = clause.OnConflict{DoNothing: true}

// translate maps GORM errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// paginate applies the filter's page window
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern builds a case-insensitive contains pattern for
// LOWER(col) LIKE ? ESCAPE '\'
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// prefixPattern builds a case-insensitive starts-with pattern
func prefixPattern(s string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// stringFilter returns a non-empty string filter value
func stringFilter(filter shared.Filter, key string) (string, bool) {
	v, ok := filter.Filters[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// saveAggregate inserts a new aggregate or updates a stored one guarded by
// its stored version. The model's Version must already hold the new value.
func saveAggregate(db *gorm.DB, model any, root *shared.BaseAggregateRoot) error {
	if root.StoredVersion() == 0 {
		if err := db.Create(model).Error; err != nil {
			return translate(err)
		}
		root.MarkStored()
		return nil
	}

	result := db.Model(model).
		Where("id = ? AND version = ?", root.ID, root.StoredVersion()).
		Select("*").Omit("created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	root.MarkStored()
	return nil
}
