package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/google/uuid"

	"artmarket/internal/auth"
	apperrors "artmarket/internal/errors"
	"artmarket/internal/model"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

const userContextKey = "user"

// UserContext is the authenticated caller attached to the request context.
// TestUser marks the reserved demo account, which is denied destructive
// writes elsewhere.
type UserContext struct {
	UserID   uuid.UUID
	Role     model.Role
	Name     string
	TestUser bool
}

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c echo.Context) (*UserContext, bool) {
	user, ok := c.Get(userContextKey).(*UserContext)
	return user, ok
}

// Authenticate verifies the session cookie and populates the user context.
// A missing cookie and an invalid or expired token deliberately produce the
// same 401 so callers cannot probe token validity.
func Authenticate(jwtService *auth.JWTService, demoUserID string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + CookieName,
		ContextKey:  userContextKey,
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			claims, err := jwtService.VerifyToken(tokenString)
			if err != nil {
				return nil, err
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &UserContext{
				UserID:   userID,
				Role:     claims.Role,
				Name:     claims.Name,
				TestUser: claims.UserID == demoUserID,
			}, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: apperrors.ErrUnauthenticated.Error(),
				Code:  "UNAUTHENTICATED",
			})
		},
	})
}

// Authorize rejects callers whose role is not in the allowed set. Must run
// after Authenticate.
func Authorize(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrUnauthenticated.Error(),
					Code:  "UNAUTHENTICATED",
				})
			}
			for _, role := range allowed {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: apperrors.ErrUnauthorized.Error(),
				Code:  "UNAUTHORIZED",
			})
		}
	}
}

// BlockDemoUser rejects destructive writes from the shared demo account.
// Must run after Authenticate.
func BlockDemoUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user, ok := CurrentUser(c); ok && user.TestUser {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: apperrors.ErrDemoReadOnly.Error(),
					Code:  "DEMO_READ_ONLY",
				})
			}
			return next(c)
		}
	}
}
