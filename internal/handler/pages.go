package handler

import (
	"embed"
	"html/template"
	"net/url"
	"strings"
	"unicode"

	"github.com/noah-isme/ag-office-console/internal/menu"
	"github.com/noah-isme/ag-office-console/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the console's HTML views.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

type page struct {
	Title    string
	Locale   string
	Menu     []menu.Section
	Identity *models.Identity

	// sign-in form
	Error      string
	From       string
	Email      string
	RememberMe bool
}

// safeRedirect keeps post-login redirects on this site and away from the
// sign-in page itself. Browsers drop tabs and newlines from URLs, so any
// control or space character is refused outright.
func safeRedirect(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	if strings.IndexFunc(from, func(r rune) bool { return unicode.IsControl(r) || unicode.IsSpace(r) }) >= 0 {
		return "/"
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	if u.Path == signInPath {
		return "/"
	}
	return from
}
