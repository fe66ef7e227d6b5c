package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"artmarket/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Artwork{}))
	return db
}

func seedArtworks(t *testing.T, repo ArtworkRepository, artworks []model.Artwork) {
	t.Helper()
	for i := range artworks {
		require.NoError(t, repo.Create(context.Background(), &artworks[i]))
	}
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		sort        string
		wantPage    int
		wantLimit   int
		wantSort    string
	}{
		{"defaults", "", "", "", 1, 8, "newest"},
		{"valid", "3", "20", "oldest", 3, 20, "oldest"},
		{"non-numeric page", "abc", "20", "a-z", 1, 20, "a-z"},
		{"non-numeric limit", "2", "lots", "z-a", 2, 8, "z-a"},
		{"zero page", "0", "0", "newest", 1, 8, "newest"},
		{"negative", "-5", "-1", "newest", 1, 8, "newest"},
		{"unknown sort", "1", "8", "price-high", 1, 8, "newest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseListParams("", "", tt.sort, tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantSort, p.Sort)
		})
	}
}

func TestArtworkRepository_List_Filters(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	owner := uuid.New()
	seedArtworks(t, repo, []model.Artwork{
		{Title: "Sunset", Location: "Rome", CreatedBy: owner},
		{Title: "Sunrise", Location: "Paris", CreatedBy: owner},
		{Title: "Moonrise", Location: "Rome", CreatedBy: owner},
	})
	ctx := context.Background()

	t.Run("search and location are ANDed", func(t *testing.T) {
		artworks, total, err := repo.List(ctx, ParseListParams("sun", "rome", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, artworks, 1)
		assert.Equal(t, "Sunset", artworks[0].Title)
	})

	t.Run("search only", func(t *testing.T) {
		_, total, err := repo.List(ctx, ParseListParams("SUN", "", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("location only", func(t *testing.T) {
		_, total, err := repo.List(ctx, ParseListParams("", "ROME", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("no filters", func(t *testing.T) {
		artworks, total, err := repo.List(ctx, ParseListParams("", "", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, artworks, 3)
	})

	t.Run("no match", func(t *testing.T) {
		artworks, total, err := repo.List(ctx, ParseListParams("sunset", "paris", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, artworks)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		_, total, err := repo.List(ctx, ParseListParams("%", "", "", "", ""))
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})
}

func TestArtworkRepository_List_Sort(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	owner := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedArtworks(t, repo, []model.Artwork{
		{Title: "Banana Tree", CreatedBy: owner, CreatedAt: base},
		{Title: "Cliffs", CreatedBy: owner, CreatedAt: base.Add(time.Hour)},
		{Title: "Aurora", CreatedBy: owner, CreatedAt: base.Add(2 * time.Hour)},
	})
	ctx := context.Background()

	titles := func(artworks []model.Artwork) []string {
		out := make([]string, len(artworks))
		for i, a := range artworks {
			out[i] = a.Title
		}
		return out
	}

	tests := []struct {
		sort string
		want []string
	}{
		{"newest", []string{"Aurora", "Cliffs", "Banana Tree"}},
		{"oldest", []string{"Banana Tree", "Cliffs", "Aurora"}},
		{"a-z", []string{"Aurora", "Banana Tree", "Cliffs"}},
		{"z-a", []string{"Cliffs", "Banana Tree", "Aurora"}},
		{"bogus falls back to newest", []string{"Aurora", "Cliffs", "Banana Tree"}},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			artworks, _, err := repo.List(ctx, ParseListParams("", "", tt.sort, "", ""))
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(artworks))
		})
	}
}

func TestArtworkRepository_List_Pagination(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	owner := uuid.New()
	var artworks []model.Artwork
	for i := 0; i < 10; i++ {
		artworks = append(artworks, model.Artwork{
			Title:     fmt.Sprintf("Piece %02d", i),
			CreatedBy: owner,
		})
	}
	seedArtworks(t, repo, artworks)
	ctx := context.Background()

	t.Run("first page", func(t *testing.T) {
		page, total, err := repo.List(ctx, ParseListParams("", "", "", "1", "8"))
		require.NoError(t, err)
		assert.EqualValues(t, 10, total)
		assert.Len(t, page, 8)
	})

	t.Run("last partial page", func(t *testing.T) {
		page, total, err := repo.List(ctx, ParseListParams("", "", "", "2", "8"))
		require.NoError(t, err)
		assert.EqualValues(t, 10, total)
		assert.Len(t, page, 2)
	})

	t.Run("page beyond range keeps true total", func(t *testing.T) {
		page, total, err := repo.List(ctx, ParseListParams("", "", "", "99", "8"))
		require.NoError(t, err)
		assert.EqualValues(t, 10, total)
		assert.Empty(t, page)
	})
}

func TestArtworkRepository_FindByCreator(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	mine := uuid.New()
	theirs := uuid.New()
	seedArtworks(t, repo, []model.Artwork{
		{Title: "Mine A", CreatedBy: mine},
		{Title: "Theirs", CreatedBy: theirs},
		{Title: "Mine B", CreatedBy: mine},
	})

	artworks, err := repo.FindByCreator(context.Background(), mine)
	require.NoError(t, err)
	require.Len(t, artworks, 2)
	for _, a := range artworks {
		assert.Equal(t, mine, a.CreatedBy)
	}
}

func TestArtworkRepository_UpdateFields_Partial(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	art := model.Artwork{Title: "Before", Description: "keep me", Location: "Rome", CreatedBy: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), &art))

	require.NoError(t, repo.UpdateFields(context.Background(), art.ID, map[string]interface{}{
		"title": "After",
	}))

	got, err := repo.FindByID(context.Background(), art.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "keep me", got.Description)
	assert.Equal(t, "Rome", got.Location)
}

func TestArtworkRepository_Delete(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))
	art := model.Artwork{Title: "Gone", CreatedBy: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), &art))

	require.NoError(t, repo.Delete(context.Background(), art.ID))

	_, err := repo.FindByID(context.Background(), art.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
