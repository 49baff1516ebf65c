package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
)

const searchLimit = 50

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository runs the read-only catalog queries over providers and listings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListedTags returns the raw tag strings of every listed listing.
func (r *Repository) ListedTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("status = ? AND tags <> ''", enums.ListingStatusListed).
		Pluck("tags", &tags).Error
	return tags, err
}

func (r *Repository) SearchProviders(ctx context.Context, query string) ([]models.Provider, error) {
	q := r.db.WithContext(ctx).Model(&models.Provider{})
	if pattern := likePattern(query); pattern != "" {
		q = q.Where(`lower(name) LIKE ? ESCAPE '\' OR lower(bio) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	var rows []models.Provider
	err := q.Order("rating DESC").Order("jobs DESC").Order("name ASC").Limit(searchLimit).Find(&rows).Error
	return rows, err
}

func (r *Repository) SearchListings(ctx context.Context, query string) ([]models.Listing, error) {
	q := r.db.WithContext(ctx).Model(&models.Listing{})
	if pattern := likePattern(query); pattern != "" {
		q = q.Where(
			`lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\' OR lower(tags) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}
	var rows []models.Listing
	err := q.Order("created_at DESC").Limit(searchLimit).Find(&rows).Error
	return rows, err
}

func likePattern(query string) string {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if trimmed == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(trimmed) + "%"
}
