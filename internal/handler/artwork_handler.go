package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "artmarket/internal/errors"
	"artmarket/internal/middleware"
	"artmarket/internal/repository"
	"artmarket/internal/service"
)

const (
	// MaxAvatarSize caps uploads at 5MB; the web client enforces the same
	// limit before the network call.
	MaxAvatarSize = 5 << 20

	maxMultipartMemory = 32 << 20
)

// artworkFields are the only multipart fields honored by create/update.
// Anything else, createdBy included, is ignored.
var artworkFields = []string{"title", "description", "price", "location"}

// ArtworkHandler handles artwork CRUD endpoints.
type ArtworkHandler struct {
	artworkService service.ArtworkService
	uploadDir      string
	l              *zap.Logger
}

// NewArtworkHandler creates a new artwork handler.
func NewArtworkHandler(artworkService service.ArtworkService, uploadDir string, l *zap.Logger) *ArtworkHandler {
	return &ArtworkHandler{artworkService: artworkService, uploadDir: uploadDir, l: l}
}

// CreateArtworkRequest holds the validated create fields.
type CreateArtworkRequest struct {
	Title    string `validate:"required"`
	Location string `validate:"required"`
}

// ListAll godoc
// @Summary List artworks with search, sort, and pagination
// @Tags artworks
// @Produce json
// @Param search query string false "Case-insensitive title substring"
// @Param location query string false "Case-insensitive location substring"
// @Param sort query string false "newest | oldest | a-z | z-a"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 8)"
// @Success 200 {object} service.ListResult
// @Failure 500 {object} errors.ErrorResponse
// @Router /artworks [get]
func (h *ArtworkHandler) ListAll(c echo.Context) error {
	params := repository.ParseListParams(
		c.QueryParam("search"),
		c.QueryParam("location"),
		c.QueryParam("sort"),
		c.QueryParam("page"),
		c.QueryParam("limit"),
	)
	result, err := h.artworkService.ListAll(c.Request().Context(), params)
	if err != nil {
		h.l.Error("list artworks failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to list artworks",
			Code:  "ARTWORK_LIST_FAILED",
		})
	}
	return c.JSON(http.StatusOK, result)
}

// ListMine godoc
// @Summary List the caller's artworks
// @Tags artworks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /artworks/mine [get]
func (h *ArtworkHandler) ListMine(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
	}
	artworks, err := h.artworkService.ListMine(c.Request().Context(), user.UserID)
	if err != nil {
		h.l.Error("list own artworks failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to list artworks",
			Code:  "ARTWORK_LIST_FAILED",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"artworks": artworks})
}

// GetOne godoc
// @Summary Get a single artwork
// @Tags artworks
// @Produce json
// @Param id path string true "Artwork ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /artworks/{id} [get]
func (h *ArtworkHandler) GetOne(c echo.Context) error {
	artwork, err := h.artworkService.GetOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrArtworkNotFound) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("get artwork failed", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to load artwork",
			Code:  "ARTWORK_LOAD_FAILED",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"artwork": artwork})
}

// Create godoc
// @Summary Create an artwork (multipart, optional avatar file)
// @Tags artworks
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param price formData string false "Price"
// @Param location formData string true "Location"
// @Param avatar formData file false "Image (max 5MB)"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /artworks [post]
func (h *ArtworkHandler) Create(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
	}

	fields := formFields(c, artworkFields...)
	if err := c.Validate(&CreateArtworkRequest{
		Title:    fields["title"],
		Location: fields["location"],
	}); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	filePath, err := h.stageAvatar(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	artwork, err := h.artworkService.Create(c.Request().Context(), fields, filePath, user.UserID, user.Name)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("create artwork failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error:  "Failed to create artwork. Please try again later.",
			Code:   "ARTWORK_CREATE_FAILED",
			Detail: err.Error(),
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"artwork": artwork})
}

// Update godoc
// @Summary Update an artwork (multipart, optional replacement avatar)
// @Tags artworks
// @Accept mpfd
// @Produce json
// @Param id path string true "Artwork ID"
// @Param avatar formData file false "Replacement image (max 5MB)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /artworks/{id} [patch]
func (h *ArtworkHandler) Update(c echo.Context) error {
	fields := formFields(c, artworkFields...)

	filePath, err := h.stageAvatar(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	updated, err := h.artworkService.Update(c.Request().Context(), c.Param("id"), fields, filePath)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrArtworkNotFound), errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrAvatarUpload):
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("update artwork failed", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error:  "Failed to update artwork. Please try again later.",
			Code:   "ARTWORK_UPDATE_FAILED",
			Detail: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Artwork modified", "updatedArtwork": updated})
}

// Delete godoc
// @Summary Delete an artwork and its remote image
// @Tags artworks
// @Produce json
// @Param id path string true "Artwork ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /artworks/{id} [delete]
func (h *ArtworkHandler) Delete(c echo.Context) error {
	if err := h.artworkService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, apperrors.ErrArtworkNotFound) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("delete artwork failed", zap.String("id", c.Param("id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error:  "Failed to delete artwork. Please try again later.",
			Code:   "ARTWORK_DELETE_FAILED",
			Detail: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"msg": "Artwork deleted"})
}

// stageAvatar copies an attached avatar file into the upload staging dir and
// returns its path, or "" when no file was attached. The service removes the
// staged file after the upload attempt.
func (h *ArtworkHandler) stageAvatar(c echo.Context) (string, error) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		// Both a missing field and a non-multipart body mean "no file".
		return "", nil
	}
	if fileHeader.Size > MaxAvatarSize {
		return "", fmt.Errorf("%w: image exceeds the 5MB limit", apperrors.ErrValidation)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("%w: unreadable upload", apperrors.ErrValidation)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.uploadDir, "avatar-*")
	if err != nil {
		h.l.Error("create staging file failed", zap.Error(err))
		return "", fmt.Errorf("stage upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		h.l.Error("write staging file failed", zap.Error(err))
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return dst.Name(), nil
}

// formFields collects the named fields that are actually present in the
// request so updates can merge without clobbering absent fields.
func formFields(c echo.Context, keys ...string) map[string]string {
	req := c.Request()
	values := url.Values{}
	if err := req.ParseMultipartForm(maxMultipartMemory); err == nil && req.MultipartForm != nil {
		values = url.Values(req.MultipartForm.Value)
	} else {
		_ = req.ParseForm()
		values = req.PostForm
	}

	fields := make(map[string]string)
	for _, key := range keys {
		if v, ok := values[key]; ok && len(v) > 0 {
			fields[key] = v[0]
		}
	}
	return fields
}
