// Package routes names the application's navigable locations and decides
// which of them a session may visit.
package routes

import (
	"net/url"
	"strings"
)

const (
	Home           = "/"
	Login          = "/login"
	Register       = "/register"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"

	Dashboard     = "/dashboard"
	Presentations = "/presentations"
	Templates     = "/templates"
	Analytics     = "/analytics"
	Team          = "/team"
	Settings      = "/settings"
	Help          = "/help"

	Create = "/create"
)

// protectedPrefixes require a session.
var protectedPrefixes = []string{
	Dashboard, Presentations, "/presentation", "/slides", Templates,
	Analytics, Team, Settings, Help, Create,
}

// authPrefixes are only useful without a session.
var authPrefixes = []string{Login, Register, ForgotPassword, ResetPassword}

// Decision is the outcome of Guard.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Guard decides whether path may be shown. Anonymous visits to protected
// routes go to the login page with the original path in "from"; signed-in
// visits to auth routes go to the dashboard.
func Guard(path string, authenticated bool) Decision {
	p := cleanPath(path)
	if !authenticated && matchesAny(p, protectedPrefixes) {
		return Decision{Redirect: LoginFrom(p)}
	}
	if authenticated && matchesAny(p, authPrefixes) {
		return Decision{Redirect: Dashboard}
	}
	return Decision{Allowed: true}
}

// LoginFrom is the login route carrying the return path.
func LoginFrom(from string) string {
	return Login + "?" + url.Values{"from": {from}}.Encode()
}

// ReturnPath extracts the "from" parameter of a login URL, defaulting to the
// dashboard. Only local paths are honoured.
func ReturnPath(loginURL string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return Dashboard
	}
	from := u.Query().Get("from")
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return Dashboard
	}
	return from
}

// IsProtected reports whether path needs a session.
func IsProtected(path string) bool {
	return matchesAny(cleanPath(path), protectedPrefixes)
}

func Presentation(id string) string       { return "/presentation/" + url.PathEscape(id) }
func PresentationEdit(id string) string   { return Presentation(id) + "/edit" }
func PresentationExport(id string) string { return Presentation(id) + "/export" }

// Progress is the generation progress screen for a job.
func Progress(generationID string) string {
	return Create + "/progress?" + url.Values{"id": {generationID}}.Encode()
}

func cleanPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return Home
	}
	return path
}

// matchesAny matches whole path segments, so /templates matches
// /templates/x but not /templatesx.
func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
