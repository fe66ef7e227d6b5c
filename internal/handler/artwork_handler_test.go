package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"artmarket/internal/auth"
	"artmarket/internal/config"
	"artmarket/internal/handler"
	"artmarket/internal/media"
	"artmarket/internal/middleware"
	"artmarket/internal/model"
	"artmarket/internal/repository"
	"artmarket/internal/router"
	"artmarket/internal/service"
)

// fakeHost is a scriptable media.Host.
type fakeHost struct {
	uploads   int
	destroys  []string
	uploadErr error
}

func (f *fakeHost) Upload(ctx context.Context, filePath string) (*media.UploadResult, error) {
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &media.UploadResult{
		SecureURL: fmt.Sprintf("https://media.example.com/%d.jpg", f.uploads),
		PublicID:  fmt.Sprintf("img-%d", f.uploads),
	}, nil
}

func (f *fakeHost) Destroy(ctx context.Context, publicID string) error {
	f.destroys = append(f.destroys, publicID)
	return nil
}

type testApp struct {
	e          *echo.Echo
	db         *gorm.DB
	host       *fakeHost
	jwtService *auth.JWTService
	repo       repository.ArtworkRepository
	demoUserID string
	uploadDir  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.User{}, &model.Artwork{}))

	cfg := &config.Config{
		DemoUserID: config.DefaultDemoUserID,
		UploadDir:  t.TempDir(),
	}
	log := zap.NewNop()
	host := &fakeHost{}

	userRepo := repository.NewUserRepository(gormDB)
	artworkRepo := repository.NewArtworkRepository(gormDB)
	jwtService := auth.NewJWTService("test-secret")

	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo, artworkRepo)
	artworkService := service.NewArtworkService(artworkRepo, host, nil, log)

	e := echo.New()
	router.Register(e, cfg, jwtService,
		handler.NewAuthHandler(authService, log),
		handler.NewUserHandler(userService, log),
		handler.NewArtworkHandler(artworkService, cfg.UploadDir, log),
	)

	return &testApp{
		e:          e,
		db:         gormDB,
		host:       host,
		jwtService: jwtService,
		repo:       artworkRepo,
		demoUserID: cfg.DemoUserID,
		uploadDir:  cfg.UploadDir,
	}
}

func (a *testApp) createUser(t *testing.T, name string, role model.Role) (*model.User, string) {
	t.Helper()
	user := &model.User{Name: name, Email: name + "@example.com", Password: "x", Role: role}
	require.NoError(t, a.db.Create(user).Error)
	token, err := a.jwtService.IssueToken(user.ID, user.Role, user.Name)
	require.NoError(t, err)
	return user, token
}

func (a *testApp) seedArtwork(t *testing.T, art *model.Artwork) *model.Artwork {
	t.Helper()
	require.NoError(t, a.repo.Create(context.Background(), art))
	return art
}

func (a *testApp) request(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reader = body
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestArtworkRoutes_ListAll_SearchScenario(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.createUser(t, "frida", model.RoleUser)
	app.seedArtwork(t, &model.Artwork{Title: "Sunset", Location: "Rome", CreatedBy: owner.ID})
	app.seedArtwork(t, &model.Artwork{Title: "Sunrise", Location: "Paris", CreatedBy: owner.ID})

	rec := app.request(t, http.MethodGet, "/api/artworks?search=sun&location=rome", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.EqualValues(t, 1, result.TotalArtworks)
	assert.Equal(t, 1, result.NumOfPages)
	require.Len(t, result.Artworks, 1)
	assert.Equal(t, "Sunset", result.Artworks[0].Title)
}

func TestArtworkRoutes_Create_NoFile(t *testing.T) {
	app := newTestApp(t)
	user, token := app.createUser(t, "frida", model.RoleUser)

	body, contentType := multipartBody(t, map[string]string{
		"title":     "Sunset",
		"price":     "100",
		"location":  "Rome",
		"createdBy": uuid.NewString(), // must be overwritten by the caller id
	}, "", "", nil)
	rec := app.request(t, http.MethodPost, "/api/artworks", token, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Artwork model.Artwork `json:"artwork"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, user.ID, out.Artwork.CreatedBy)
	assert.Equal(t, user.Name, out.Artwork.CreatedByName)
	assert.Empty(t, out.Artwork.Avatar)
	assert.Zero(t, app.host.uploads)
}

func TestArtworkRoutes_Create_WithFile(t *testing.T) {
	app := newTestApp(t)
	_, token := app.createUser(t, "frida", model.RoleUser)

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Sunset",
		"location": "Rome",
	}, "avatar", "sunset.jpg", []byte("jpeg bytes"))
	rec := app.request(t, http.MethodPost, "/api/artworks", token, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Artwork model.Artwork `json:"artwork"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "https://media.example.com/1.jpg", out.Artwork.Avatar)
	assert.Equal(t, "img-1", out.Artwork.AvatarPublicID)
}

func TestArtworkRoutes_Create_RequiresAuth(t *testing.T) {
	app := newTestApp(t)
	body, contentType := multipartBody(t, map[string]string{"title": "Sunset", "location": "Rome"}, "", "", nil)
	rec := app.request(t, http.MethodPost, "/api/artworks", "", body, contentType)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestArtworkRoutes_Create_OversizedAvatar(t *testing.T) {
	app := newTestApp(t)
	_, token := app.createUser(t, "frida", model.RoleUser)

	big := bytes.Repeat([]byte("a"), handler.MaxAvatarSize+1)
	body, contentType := multipartBody(t, map[string]string{
		"title":    "Sunset",
		"location": "Rome",
	}, "avatar", "huge.jpg", big)
	rec := app.request(t, http.MethodPost, "/api/artworks", token, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "5MB")
	assert.Zero(t, app.host.uploads)

	entries, err := os.ReadDir(app.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must not be staged")

	var count int64
	require.NoError(t, app.db.Model(&model.Artwork{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestArtworkRoutes_Update_OversizedAvatar(t *testing.T) {
	app := newTestApp(t)
	owner, token := app.createUser(t, "frida", model.RoleUser)
	art := app.seedArtwork(t, &model.Artwork{Title: "Keep", Location: "Rome", CreatedBy: owner.ID})

	big := bytes.Repeat([]byte("a"), handler.MaxAvatarSize+1)
	body, contentType := multipartBody(t, map[string]string{"title": "Changed"}, "avatar", "huge.jpg", big)
	rec := app.request(t, http.MethodPatch, "/api/artworks/"+art.ID.String(), token, body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "5MB")

	got, err := app.repo.FindByID(context.Background(), art.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)
}

func TestArtworkRoutes_Create_MissingTitle(t *testing.T) {
	app := newTestApp(t)
	_, token := app.createUser(t, "frida", model.RoleUser)

	body, contentType := multipartBody(t, map[string]string{"location": "Rome"}, "", "", nil)
	rec := app.request(t, http.MethodPost, "/api/artworks", token, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArtworkRoutes_GetOne(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.createUser(t, "frida", model.RoleUser)
	art := app.seedArtwork(t, &model.Artwork{Title: "Sunset", Location: "Rome", CreatedBy: owner.ID})

	t.Run("found", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/api/artworks/"+art.ID.String(), "", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Sunset")
	})

	t.Run("missing id is 404", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/api/artworks/"+uuid.NewString(), "", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 404 not 500", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/api/artworks/not-a-uuid", "", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestArtworkRoutes_ListMine(t *testing.T) {
	app := newTestApp(t)
	frida, fridaToken := app.createUser(t, "frida", model.RoleUser)
	diego, _ := app.createUser(t, "diego", model.RoleUser)
	app.seedArtwork(t, &model.Artwork{Title: "Mine", CreatedBy: frida.ID})
	app.seedArtwork(t, &model.Artwork{Title: "Not Mine", CreatedBy: diego.ID})

	rec := app.request(t, http.MethodGet, "/api/artworks/mine", fridaToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Artworks []model.Artwork `json:"artworks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Artworks, 1)
	assert.Equal(t, "Mine", out.Artworks[0].Title)
}

func TestArtworkRoutes_Update(t *testing.T) {
	app := newTestApp(t)
	owner, token := app.createUser(t, "frida", model.RoleUser)

	t.Run("replaces image only after upload succeeds", func(t *testing.T) {
		art := app.seedArtwork(t, &model.Artwork{
			Title: "Old", Location: "Rome", CreatedBy: owner.ID,
			Avatar: "https://media.example.com/old.jpg", AvatarPublicID: "old-img",
		})

		body, contentType := multipartBody(t, map[string]string{"title": "New"}, "avatar", "new.jpg", []byte("jpeg"))
		rec := app.request(t, http.MethodPatch, "/api/artworks/"+art.ID.String(), token, body, contentType)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := app.repo.FindByID(context.Background(), art.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "Rome", got.Location, "absent fields stay untouched")
		assert.Equal(t, "img-1", got.AvatarPublicID)
		assert.Equal(t, []string{"old-img"}, app.host.destroys)
	})

	t.Run("upload failure leaves record and old image untouched", func(t *testing.T) {
		art := app.seedArtwork(t, &model.Artwork{
			Title: "Keep", CreatedBy: owner.ID,
			Avatar: "https://media.example.com/keep.jpg", AvatarPublicID: "keep-img",
		})
		app.host.uploadErr = errors.New("media host down")
		defer func() { app.host.uploadErr = nil }()
		destroysBefore := len(app.host.destroys)

		body, contentType := multipartBody(t, map[string]string{"title": "Changed"}, "avatar", "new.jpg", []byte("jpeg"))
		rec := app.request(t, http.MethodPatch, "/api/artworks/"+art.ID.String(), token, body, contentType)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		got, err := app.repo.FindByID(context.Background(), art.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep", got.Title)
		assert.Equal(t, "keep-img", got.AvatarPublicID)
		assert.Len(t, app.host.destroys, destroysBefore)
	})

	t.Run("missing artwork is 404", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"title": "X"}, "", "", nil)
		rec := app.request(t, http.MethodPatch, "/api/artworks/"+uuid.NewString(), token, body, contentType)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestArtworkRoutes_Delete(t *testing.T) {
	app := newTestApp(t)
	owner, token := app.createUser(t, "frida", model.RoleUser)

	t.Run("removes record and remote image", func(t *testing.T) {
		art := app.seedArtwork(t, &model.Artwork{Title: "Gone", CreatedBy: owner.ID, AvatarPublicID: "gone-img"})

		rec := app.request(t, http.MethodDelete, "/api/artworks/"+art.ID.String(), token, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, app.host.destroys, "gone-img")

		_, err := app.repo.FindByID(context.Background(), art.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("second delete is 404", func(t *testing.T) {
		art := app.seedArtwork(t, &model.Artwork{Title: "Twice", CreatedBy: owner.ID})
		rec := app.request(t, http.MethodDelete, "/api/artworks/"+art.ID.String(), token, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = app.request(t, http.MethodDelete, "/api/artworks/"+art.ID.String(), token, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestArtworkRoutes_DemoUserBlocked(t *testing.T) {
	app := newTestApp(t)
	demoID := uuid.MustParse(app.demoUserID)
	demo := &model.User{ID: demoID, Name: "Demo", Email: "demo@example.com", Password: "x", Role: model.RoleUser}
	require.NoError(t, app.db.Create(demo).Error)
	token, err := app.jwtService.IssueToken(demoID, model.RoleUser, "Demo")
	require.NoError(t, err)

	body, contentType := multipartBody(t, map[string]string{"title": "Nope", "location": "Rome"}, "", "", nil)
	rec := app.request(t, http.MethodPost, "/api/artworks", token, body, contentType)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Reads still work for the demo account.
	rec = app.request(t, http.MethodGet, "/api/artworks/mine", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserRoutes_AppStats_AdminOnly(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.createUser(t, "admin", model.RoleAdmin)
	_, userToken := app.createUser(t, "frida", model.RoleUser)

	rec := app.request(t, http.MethodGet, "/api/users/admin/app-stats", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats service.AppStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats.Users)

	rec = app.request(t, http.MethodGet, "/api/users/admin/app-stats", userToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request(t, http.MethodGet, "/api/users/admin/app-stats", "garbage", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
