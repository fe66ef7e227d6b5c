package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "artmarket/internal/errors"
	"artmarket/internal/middleware"
	"artmarket/internal/service"
)

// UserHandler handles profile and admin endpoints.
type UserHandler struct {
	userService service.UserService
	l           *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService, l *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, l: l}
}

// UpdateUserRequest carries optional profile fields; absent fields stay
// untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name" form:"name"`
	LastName *string `json:"lastName" form:"lastName"`
	Email    *string `json:"email" form:"email" validate:"omitempty,email"`
	Location *string `json:"location" form:"location"`
}

// CurrentUser godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
	}

	profile, err := h.userService.CurrentUser(c.Request().Context(), user.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("load current user failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to load user",
			Code:  "USER_LOAD_FAILED",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": profile})
}

// UpdateUser godoc
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateUserRequest true "Profile fields"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/update-user [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error())
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, err := h.userService.UpdateProfile(c.Request().Context(), user.UserID, service.ProfileUpdate{
		Name:     req.Name,
		LastName: req.LastName,
		Email:    req.Email,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrEmailTaken) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		h.l.Error("update user failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to update user",
			Code:  "USER_UPDATE_FAILED",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"msg": "user updated"})
}

// AppStats godoc
// @Summary Application counters for the admin dashboard
// @Tags users
// @Produce json
// @Success 200 {object} service.AppStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users/admin/app-stats [get]
func (h *UserHandler) AppStats(c echo.Context) error {
	stats, err := h.userService.Stats(c.Request().Context())
	if err != nil {
		h.l.Error("load app stats failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "failed to load stats",
			Code:  "STATS_FAILED",
		})
	}
	return c.JSON(http.StatusOK, stats)
}
