package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const flashCookie = "flash"

// flashMessage is a one-shot toast carried across a redirect.
type flashMessage struct {
	Kind string // "success" or "error"
	Text string
}

func setFlash(c echo.Context, kind, text string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + text),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// popFlash reads and clears the pending toast, if any.
func popFlash(c echo.Context) *flashMessage {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, text, found := strings.Cut(decoded, "|")
	if !found {
		return &flashMessage{Kind: "success", Text: decoded}
	}
	return &flashMessage{Kind: kind, Text: text}
}
