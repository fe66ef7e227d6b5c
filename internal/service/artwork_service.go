package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"artmarket/internal/cache"
	apperrors "artmarket/internal/errors"
	"artmarket/internal/media"
	"artmarket/internal/model"
	"artmarket/internal/repository"
)

const (
	listCachePrefix = "artworks:list:"
	listCacheTTL    = 30 * time.Second
)

// ListResult is the paginated listing response.
type ListResult struct {
	TotalArtworks int64           `json:"totalArtworks"`
	NumOfPages    int             `json:"numOfPages"`
	Artworks      []model.Artwork `json:"artworks"`
}

// ArtworkService implements the artwork CRUD flow, including the two-step
// image replacement against the media host.
type ArtworkService interface {
	ListAll(ctx context.Context, p repository.ListParams) (*ListResult, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Artwork, error)
	Create(ctx context.Context, fields map[string]string, filePath string, userID uuid.UUID, userName string) (*model.Artwork, error)
	GetOne(ctx context.Context, id string) (*model.Artwork, error)
	Update(ctx context.Context, id string, fields map[string]string, filePath string) (*model.Artwork, error)
	Delete(ctx context.Context, id string) error
}

type artworkService struct {
	repo  repository.ArtworkRepository
	media media.Host
	cache *cache.Client
	l     *zap.Logger
}

// NewArtworkService creates a new artwork service.
func NewArtworkService(repo repository.ArtworkRepository, mediaHost media.Host, cacheClient *cache.Client, l *zap.Logger) ArtworkService {
	return &artworkService{
		repo:  repo,
		media: mediaHost,
		cache: cacheClient,
		l:     l,
	}
}

// ListAll returns a filtered, sorted, paginated page of artworks plus true
// totals. Pages are cached briefly; the cache is dropped on every write.
func (s *artworkService) ListAll(ctx context.Context, p repository.ListParams) (*ListResult, error) {
	key := fmt.Sprintf("%s%s|%s|%s|%d|%d", listCachePrefix, p.Search, p.Location, p.Sort, p.Page, p.Limit)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached ListResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	artworks, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list artworks: %w", err)
	}

	result := &ListResult{
		TotalArtworks: total,
		NumOfPages:    int(math.Ceil(float64(total) / float64(p.Limit))),
		Artworks:      artworks,
	}
	if data, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, key, data, listCacheTTL)
	}
	return result, nil
}

// ListMine returns only the caller's artworks.
func (s *artworkService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Artwork, error) {
	artworks, err := s.repo.FindByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list own artworks: %w", err)
	}
	return artworks, nil
}

// Create persists a new artwork stamped with the authenticated owner. A
// client-supplied createdBy is never honored. When a staged file is present
// it is uploaded first and removed locally regardless of the outcome.
func (s *artworkService) Create(ctx context.Context, fields map[string]string, filePath string, userID uuid.UUID, userName string) (*model.Artwork, error) {
	if filePath != "" {
		defer s.removeStaged(filePath)
	}

	artwork := &model.Artwork{
		Title:         fields["title"],
		Description:   fields["description"],
		Location:      fields["location"],
		CreatedBy:     userID,
		CreatedByName: userName,
	}
	if raw, ok := fields["price"]; ok && raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: price must be a number", apperrors.ErrValidation)
		}
		artwork.Price = price
	}

	if filePath != "" {
		result, err := s.media.Upload(ctx, filePath)
		if err != nil {
			s.l.Error("avatar upload failed", zap.String("file", filePath), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", apperrors.ErrAvatarUpload, err)
		}
		artwork.Avatar = result.SecureURL
		artwork.AvatarPublicID = result.PublicID
	}

	if err := s.repo.Create(ctx, artwork); err != nil {
		s.l.Error("create artwork failed", zap.Error(err))
		return nil, fmt.Errorf("create artwork: %w", err)
	}
	_ = s.cache.InvalidatePrefix(ctx, listCachePrefix)
	return artwork, nil
}

// GetOne looks up an artwork by id. Malformed ids are reported as not found
// rather than surfaced as server errors.
func (s *artworkService) GetOne(ctx context.Context, id string) (*model.Artwork, error) {
	artworkID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrArtworkNotFound
	}
	artwork, err := s.repo.FindByID(ctx, artworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrArtworkNotFound
		}
		return nil, fmt.Errorf("find artwork: %w", err)
	}
	return artwork, nil
}

// Update merges the provided fields onto the existing record. With a new
// file the fresh image is uploaded first and the old remote image destroyed
// only after that upload succeeds, so a failed upload leaves both the record
// and the old image untouched.
func (s *artworkService) Update(ctx context.Context, id string, fields map[string]string, filePath string) (*model.Artwork, error) {
	if filePath != "" {
		defer s.removeStaged(filePath)
	}

	existing, err := s.GetOne(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	for key, value := range fields {
		switch key {
		case "title":
			updates["title"] = value
		case "description":
			updates["description"] = value
		case "location":
			updates["location"] = value
		case "price":
			price, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("%w: price must be a number", apperrors.ErrValidation)
			}
			updates["price"] = price
		}
	}

	if filePath != "" {
		result, err := s.media.Upload(ctx, filePath)
		if err != nil {
			s.l.Error("avatar upload failed", zap.String("artwork", id), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", apperrors.ErrAvatarUpload, err)
		}
		updates["avatar"] = result.SecureURL
		updates["avatar_public_id"] = result.PublicID

		if existing.AvatarPublicID != "" {
			if err := s.media.Destroy(ctx, existing.AvatarPublicID); err != nil {
				// The new image is already live; an orphaned old image is
				// preferable to losing the update.
				s.l.Warn("old avatar left orphaned at media host",
					zap.String("public_id", existing.AvatarPublicID), zap.Error(err))
			}
		}
	}

	if err := s.repo.UpdateFields(ctx, existing.ID, updates); err != nil {
		s.l.Error("update artwork failed", zap.String("artwork", id), zap.Error(err))
		return nil, fmt.Errorf("update artwork: %w", err)
	}
	_ = s.cache.InvalidatePrefix(ctx, listCachePrefix)

	updated, err := s.repo.FindByID(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("reload artwork: %w", err)
	}
	return updated, nil
}

// Delete removes an artwork. The local record is the source of truth: a
// failed remote image deletion is logged and accepted as orphaned storage.
func (s *artworkService) Delete(ctx context.Context, id string) error {
	artwork, err := s.GetOne(ctx, id)
	if err != nil {
		return err
	}

	if artwork.AvatarPublicID != "" {
		if err := s.media.Destroy(ctx, artwork.AvatarPublicID); err != nil {
			s.l.Warn("avatar left orphaned at media host",
				zap.String("public_id", artwork.AvatarPublicID), zap.Error(err))
		}
	}

	if err := s.repo.Delete(ctx, artwork.ID); err != nil {
		s.l.Error("delete artwork failed", zap.String("artwork", id), zap.Error(err))
		return fmt.Errorf("delete artwork: %w", err)
	}
	_ = s.cache.InvalidatePrefix(ctx, listCachePrefix)
	return nil
}

// removeStaged drops the temporary upload file; cleanup is best effort.
func (s *artworkService) removeStaged(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		s.l.Warn("failed to remove staged upload", zap.String("file", filePath), zap.Error(err))
	}
}
