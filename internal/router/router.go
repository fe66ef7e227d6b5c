package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"artmarket/internal/auth"
	"artmarket/internal/config"
	"artmarket/internal/handler"
	"artmarket/internal/middleware"
	"artmarket/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	artworkHandler *handler.ArtworkHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	authenticated := middleware.Authenticate(jwtService, cfg.DemoUserID)
	demoBlocked := middleware.BlockDemoUser()

	// Credential endpoints are throttled to slow brute force attempts.
	authGroup := api.Group("/auth", echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(10))))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/logout", authHandler.Logout)

	artworks := api.Group("/artworks")
	artworks.GET("", artworkHandler.ListAll)
	artworks.GET("/mine", artworkHandler.ListMine, authenticated)
	artworks.GET("/:id", artworkHandler.GetOne)
	artworks.POST("", artworkHandler.Create, authenticated, demoBlocked)
	artworks.PATCH("/:id", artworkHandler.Update, authenticated, demoBlocked)
	artworks.DELETE("/:id", artworkHandler.Delete, authenticated, demoBlocked)

	users := api.Group("/users", authenticated)
	users.GET("/current-user", userHandler.CurrentUser)
	users.PATCH("/update-user", userHandler.UpdateUser, demoBlocked)
	users.GET("/admin/app-stats", userHandler.AppStats, middleware.Authorize(model.RoleAdmin))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
