// Package web serves the server-rendered marketplace pages. Each page pairs
// a loader (GET, fetch data before render) with an action (POST, perform the
// mutating API call, set a toast, redirect), calling the REST API through
// internal/client.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"artmarket/internal/auth"
	"artmarket/internal/client"
	"artmarket/internal/middleware"
	"artmarket/internal/model"
	"artmarket/internal/repository"
	"artmarket/internal/service"
)

// maxAvatarSize mirrors the server-side cap so oversized files are rejected
// before the API round-trip.
const maxAvatarSize = 5 << 20

// App bundles the page handlers.
type App struct {
	api *client.Client
	l   *zap.Logger
}

// Register compiles the templates and wires the page routes.
func Register(e *echo.Echo, api *client.Client, l *zap.Logger) error {
	renderer, err := NewRenderer()
	if err != nil {
		return err
	}
	e.Renderer = renderer

	app := &App{api: api, l: l}

	e.GET("/", app.Landing)
	e.GET("/register", app.RegisterForm)
	e.POST("/register", app.RegisterSubmit)
	e.GET("/login", app.LoginForm)
	e.POST("/login", app.LoginSubmit)
	e.GET("/logout", app.Logout)

	dashboard := e.Group("/dashboard")
	dashboard.GET("", app.Dashboard)
	dashboard.POST("/add", app.AddArtwork)
	dashboard.GET("/artworks", app.AllArtworks)
	dashboard.GET("/edit/:id", app.EditForm)
	dashboard.POST("/edit/:id", app.EditSubmit)
	dashboard.POST("/delete/:id", app.DeleteArtwork)
	dashboard.GET("/profile", app.Profile)
	dashboard.POST("/profile", app.ProfileSubmit)
	dashboard.GET("/admin", app.Admin)
	return nil
}

// pageData is the template payload shared by every page.
type pageData struct {
	Title string
	User  *model.User
	Flash *flashMessage
	Data  interface{}
}

// artworksPage backs the all-artworks listing with its filter form state.
type artworksPage struct {
	Result   *service.ListResult
	Search   string
	Location string
	Sort     string
	Page     int
	Pages    []int
}

// Landing shows the public front page with the newest artworks.
func (a *App) Landing(c echo.Context) error {
	result, err := a.api.ListArtworks(c.Request().Context(), client.ListQuery{Limit: repository.DefaultLimit})
	if err != nil {
		a.l.Warn("landing listing failed", zap.Error(err))
		result = &service.ListResult{}
	}
	return c.Render(http.StatusOK, "landing", &pageData{
		Title: "Welcome",
		Flash: popFlash(c),
		Data:  result,
	})
}

// RegisterForm renders the registration page.
func (a *App) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register", &pageData{Title: "Register", Flash: popFlash(c)})
}

// RegisterSubmit creates the account and moves on to login.
func (a *App) RegisterSubmit(c echo.Context) error {
	err := a.api.Register(c.Request().Context(),
		c.FormValue("name"), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/register")
	}
	setFlash(c, "success", "Registration successful")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// LoginForm renders the login page.
func (a *App) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", &pageData{Title: "Login", Flash: popFlash(c)})
}

// LoginSubmit exchanges credentials for a session cookie.
func (a *App) LoginSubmit(c echo.Context) error {
	token, err := a.api.Login(c.Request().Context(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	c.SetCookie(sessionCookie(token))
	setFlash(c, "success", "Login successful")
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the session and returns to the landing page.
func (a *App) Logout(c echo.Context) error {
	_ = a.api.Logout(c.Request().Context())
	c.SetCookie(expiredSessionCookie())
	setFlash(c, "success", "Logged out")
	return c.Redirect(http.StatusSeeOther, "/")
}

// Dashboard is the authenticated index: the add-artwork form.
func (a *App) Dashboard(c echo.Context) error {
	_, user, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}
	return c.Render(http.StatusOK, "add", &pageData{Title: "Add Artwork", User: user, Flash: popFlash(c)})
}

// AddArtwork submits the create form.
func (a *App) AddArtwork(c echo.Context) error {
	token, _, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	file, tooLarge := a.attachedFile(c)
	if tooLarge {
		setFlash(c, "error", "Image size too large")
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}

	_, err := a.api.CreateArtwork(c.Request().Context(), token, artworkFormFields(c), file)
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	setFlash(c, "success", "Artwork added")
	return c.Redirect(http.StatusSeeOther, "/dashboard/artworks")
}

// AllArtworks lists every artwork with search, sort, and pagination.
func (a *App) AllArtworks(c echo.Context) error {
	_, user, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	params := repository.ParseListParams(
		c.QueryParam("search"),
		c.QueryParam("location"),
		c.QueryParam("sort"),
		c.QueryParam("page"),
		c.QueryParam("limit"),
	)
	result, err := a.api.ListArtworks(c.Request().Context(), client.ListQuery{
		Search:   params.Search,
		Location: params.Location,
		Sort:     params.Sort,
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}

	pages := make([]int, result.NumOfPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return c.Render(http.StatusOK, "artworks", &pageData{
		Title: "All Artworks",
		User:  user,
		Flash: popFlash(c),
		Data: &artworksPage{
			Result:   result,
			Search:   params.Search,
			Location: params.Location,
			Sort:     params.Sort,
			Page:     params.Page,
			Pages:    pages,
		},
	})
}

// EditForm loads the artwork before rendering the edit page; a failed load
// redirects back to the listing.
func (a *App) EditForm(c echo.Context) error {
	_, user, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	artwork, err := a.api.GetArtwork(c.Request().Context(), c.Param("id"))
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/dashboard/artworks")
	}
	return c.Render(http.StatusOK, "edit", &pageData{
		Title: "Edit Artwork",
		User:  user,
		Flash: popFlash(c),
		Data:  artwork,
	})
}

// EditSubmit submits the edit form.
func (a *App) EditSubmit(c echo.Context) error {
	token, _, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}
	id := c.Param("id")

	file, tooLarge := a.attachedFile(c)
	if tooLarge {
		setFlash(c, "error", "Image size too large")
		return c.Redirect(http.StatusSeeOther, "/dashboard/edit/"+id)
	}

	if _, err := a.api.UpdateArtwork(c.Request().Context(), token, id, artworkFormFields(c), file); err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/dashboard/edit/"+id)
	}
	setFlash(c, "success", "Artwork edited successfully")
	return c.Redirect(http.StatusSeeOther, "/dashboard/artworks")
}

// DeleteArtwork performs the delete action and returns to the listing.
func (a *App) DeleteArtwork(c echo.Context) error {
	token, _, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	if err := a.api.DeleteArtwork(c.Request().Context(), token, c.Param("id")); err != nil {
		setFlash(c, "error", apiMessage(err))
	} else {
		setFlash(c, "success", "Artwork deleted")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/artworks")
}

// Profile renders the profile form.
func (a *App) Profile(c echo.Context) error {
	_, user, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}
	return c.Render(http.StatusOK, "profile", &pageData{Title: "Profile", User: user, Flash: popFlash(c)})
}

// ProfileSubmit patches the profile fields.
func (a *App) ProfileSubmit(c echo.Context) error {
	token, _, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	fields := map[string]string{
		"name":     c.FormValue("name"),
		"lastName": c.FormValue("lastName"),
		"email":    c.FormValue("email"),
		"location": c.FormValue("location"),
	}
	if err := a.api.UpdateProfile(c.Request().Context(), token, fields); err != nil {
		setFlash(c, "error", apiMessage(err))
	} else {
		setFlash(c, "success", "Profile updated")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/profile")
}

// Admin shows the application counters; non-admins are bounced back.
func (a *App) Admin(c echo.Context) error {
	token, user, redirect := a.requireUser(c)
	if redirect != nil {
		return redirect(c)
	}

	stats, err := a.api.AppStats(c.Request().Context(), token)
	if err != nil {
		setFlash(c, "error", apiMessage(err))
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return c.Render(http.StatusOK, "admin", &pageData{Title: "Admin", User: user, Flash: popFlash(c), Data: stats})
}

// requireUser resolves the session cookie into a profile; on failure it
// returns a redirect to the login page.
func (a *App) requireUser(c echo.Context) (string, *model.User, echo.HandlerFunc) {
	cookie, err := c.Cookie(middleware.CookieName)
	if err != nil || cookie.Value == "" {
		return "", nil, redirectToLogin
	}
	user, err := a.api.CurrentUser(c.Request().Context(), cookie.Value)
	if err != nil {
		return "", nil, redirectToLogin
	}
	return cookie.Value, user, nil
}

func redirectToLogin(c echo.Context) error {
	setFlash(c, "error", "authentication invalid")
	return c.Redirect(http.StatusSeeOther, "/login")
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  time.Now().Add(auth.TokenExpiry),
		HttpOnly: true,
		Path:     "/",
	}
}

func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "logout",
		Expires:  time.Now(),
		HttpOnly: true,
		Path:     "/",
	}
}

// attachedFile extracts an optional avatar upload from the form. The second
// return is true when the file breaches the 5MB limit, which is rejected
// before any API call.
func (a *App) attachedFile(c echo.Context) (*client.File, bool) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil || fileHeader.Size == 0 || fileHeader.Filename == "" {
		return nil, false
	}
	if fileHeader.Size > maxAvatarSize {
		return nil, true
	}
	src, err := fileHeader.Open()
	if err != nil {
		a.l.Warn("open uploaded file failed", zap.Error(err))
		return nil, false
	}
	// src is closed when the request body is released.
	return &client.File{FieldName: "avatar", FileName: fileHeader.Filename, Content: src}, false
}

func artworkFormFields(c echo.Context) map[string]string {
	return map[string]string{
		"title":       c.FormValue("title"),
		"description": c.FormValue("description"),
		"price":       c.FormValue("price"),
		"location":    c.FormValue("location"),
	}
}

// apiMessage extracts a toast-friendly message from a client error.
func apiMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "something went wrong, please try again"
}
