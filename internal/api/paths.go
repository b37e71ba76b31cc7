// ABOUTME: API path builders for the controller, EDA, hub and Pulp endpoints
// ABOUTME: Also URL helpers for pagination links and Pulp hrefs

package api

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Hub server types
const (
	HubTypeHub    = "hub"
	HubTypeGalaxy = "galaxy"
)

// Paths builds API paths for every backend. It replaces a process-wide
// "active server" with explicit prefixes chosen at construction.
type Paths struct {
	ControllerPrefix string
	EDAPrefix        string
	HubPrefix        string
}

// HubPrefix returns the hub API prefix: an explicit prefix wins, otherwise
// galaxy servers use /api/galaxy and everything else /api/automation-hub.
func HubPrefix(explicit, serverType string) string {
	if explicit != "" {
		return strings.TrimSuffix(explicit, "/")
	}
	if serverType == HubTypeGalaxy {
		return "/api/galaxy"
	}
	return "/api/automation-hub"
}

// Controller builds a controller API path.
func (p Paths) Controller(template string, values ...string) string {
	return strings.TrimSuffix(p.ControllerPrefix, "/") + apiPath(template, values...)
}

// EDA builds an event-driven automation API path.
func (p Paths) EDA(template string, values ...string) string {
	return strings.TrimSuffix(p.EDAPrefix, "/") + apiPath(template, values...)
}

// Hub builds a hub API path.
func (p Paths) Hub(template string, values ...string) string {
	return strings.TrimSuffix(p.HubPrefix, "/") + apiPath(template, values...)
}

// Pulp builds a Pulp API path below the hub prefix.
func (p Paths) Pulp(template string, values ...string) string {
	return strings.TrimSuffix(p.HubPrefix, "/") + "/pulp/api/v3" + apiPath(template, values...)
}

// apiPath fills each "{}" placeholder in template with the next value,
// percent-encoded. Templates are constants in this codebase, so a template
// that does not start with "/" is a programming error and panics.
func apiPath(template string, values ...string) string {
	if !strings.HasPrefix(template, "/") {
		panic("api: path template must start with /: " + template)
	}

	var b strings.Builder
	rest := template
	for {
		i := strings.Index(rest, "{}")
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		if len(values) > 0 {
			b.WriteString(url.PathEscape(values[0]))
			values = values[1:]
		}
		rest = rest[i+2:]
	}
	return b.String()
}

// ServerlessURL strips scheme and host from an absolute URL, keeping path,
// query and fragment. Pulp pagination links carry the server's own idea of
// its host, which is often wrong behind a proxy. Relative paths and the
// empty string are returned unchanged.
func ServerlessURL(link string) string {
	if link == "" || strings.HasPrefix(link, "/") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	out := u.EscapedPath()
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}
	return out
}

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ParsePulpIDFromURL returns the first path segment of href that is a UUID,
// or "" when there is none.
func ParsePulpIDFromURL(href string) string {
	for _, section := range strings.Split(href, "/") {
		if !uuidPattern.MatchString(section) {
			continue
		}
		if _, err := uuid.Parse(section); err == nil {
			return section
		}
	}
	return ""
}

// AppendTrailingSlash makes sure u ends with "/".
func AppendTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
