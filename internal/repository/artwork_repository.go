package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"artmarket/internal/model"
)

const (
	// DefaultPage is used when the page parameter is missing or malformed.
	DefaultPage = 1
	// DefaultLimit is used when the limit parameter is missing or malformed.
	DefaultLimit = 8
)

// ListParams carries the sanitized artwork listing filters. All inputs are
// attacker-controlled query strings; ParseListParams never fails.
type ListParams struct {
	Search   string
	Location string
	Sort     string
	Page     int
	Limit    int
}

// ParseListParams coerces raw query values into safe listing parameters.
// Non-numeric page/limit fall back to defaults, unknown sort keys to newest.
func ParseListParams(search, location, sort, page, limit string) ListParams {
	p := ListParams{
		Search:   search,
		Location: location,
		Sort:     sort,
		Page:     DefaultPage,
		Limit:    DefaultLimit,
	}
	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n >= 1 {
		p.Limit = n
	}
	if _, ok := sortColumns[sort]; !ok {
		p.Sort = "newest"
	}
	return p
}

var sortColumns = map[string]string{
	"newest": "created_at DESC",
	"oldest": "created_at ASC",
	"a-z":    "title ASC",
	"z-a":    "title DESC",
}

// ArtworkRepository defines artwork persistence operations.
type ArtworkRepository interface {
	Create(ctx context.Context, artwork *model.Artwork) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Artwork, error)
	FindByCreator(ctx context.Context, creator uuid.UUID) ([]model.Artwork, error)
	List(ctx context.Context, p ListParams) (artworks []model.Artwork, total int64, err error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type artworkRepository struct {
	db *gorm.DB
}

// NewArtworkRepository creates a new artwork repository.
func NewArtworkRepository(db *gorm.DB) ArtworkRepository {
	return &artworkRepository{db: db}
}

func (r *artworkRepository) Create(ctx context.Context, artwork *model.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

func (r *artworkRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Artwork, error) {
	var artwork model.Artwork
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&artwork).Error; err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *artworkRepository) FindByCreator(ctx context.Context, creator uuid.UUID) ([]model.Artwork, error) {
	artworks := []model.Artwork{}
	if err := r.db.WithContext(ctx).
		Where("created_by = ?", creator).
		Order("created_at DESC").
		Find(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

// List applies the search/location filters (AND when both are present),
// sorts, and paginates. The returned total counts the filtered set, so a
// page beyond range yields an empty slice with the true total.
func (r *artworkRepository) List(ctx context.Context, p ListParams) ([]model.Artwork, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Artwork{})
	if p.Search != "" {
		q = q.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(p.Search))+"%")
	}
	if p.Location != "" {
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(p.Location))+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortColumns[p.Sort]
	if !ok {
		order = sortColumns["newest"]
	}

	artworks := []model.Artwork{}
	if err := q.
		Order(order).
		Offset((p.Page - 1) * p.Limit).
		Limit(p.Limit).
		Find(&artworks).Error; err != nil {
		return nil, 0, err
	}
	return artworks, total, nil
}

func (r *artworkRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Artwork{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *artworkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Artwork{}).Error
}

func (r *artworkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Artwork{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so user input stays a plain
// substring match.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
