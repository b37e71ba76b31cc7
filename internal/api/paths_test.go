// ABOUTME: Tests for API path builders and URL helpers
// ABOUTME: Covers prefixes per backend, placeholder escaping, serverless links and Pulp ids

package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	paths := Paths{
		ControllerPrefix: "/api/v2/",
		EDAPrefix:        "/api/eda/v1",
		HubPrefix:        HubPrefix("", HubTypeHub),
	}

	assert.Equal(t, "/api/v2/teams/", paths.Controller("/teams/"))
	assert.Equal(t, "/api/eda/v1/credentials/5/", paths.EDA("/credentials/{}/", "5"))
	assert.Equal(t, "/api/automation-hub/_ui/v1/namespaces/", paths.Hub("/_ui/v1/namespaces/"))
	assert.Equal(t, "/api/automation-hub/pulp/api/v3/remotes/ansible/collection/",
		paths.Pulp("/remotes/ansible/collection/"))
}

func TestPaths_EscapesValues(t *testing.T) {
	paths := Paths{EDAPrefix: "/api/eda/v1"}
	assert.Equal(t, "/api/eda/v1/users/a%2Fb%20c/", paths.EDA("/users/{}/", "a/b c"))
}

func TestPaths_PanicsOnRelativeTemplate(t *testing.T) {
	paths := Paths{EDAPrefix: "/api/eda/v1"}
	assert.Panics(t, func() { paths.EDA("credentials/") })
}

func TestHubPrefix(t *testing.T) {
	assert.Equal(t, "/api/automation-hub", HubPrefix("", HubTypeHub))
	assert.Equal(t, "/api/galaxy", HubPrefix("", HubTypeGalaxy))
	assert.Equal(t, "/custom", HubPrefix("/custom/", HubTypeGalaxy))
}

func TestServerlessURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/api/page/next?what#ever", "/api/page/next?what#ever"},
		{"http://localhost:5001/api/page/next?what#ever", "/api/page/next?what#ever"},
		{"https://hub.example.com/pulp/api/v3/remotes/?limit=10&offset=10", "/pulp/api/v3/remotes/?limit=10&offset=10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ServerlessURL(tt.in), "ServerlessURL(%q)", tt.in)
	}
}

func TestParsePulpIDFromURL(t *testing.T) {
	assert.Equal(t, "0187a4f1-1bd1-7c2e-b3c4-5d6e7f809a1b",
		ParsePulpIDFromURL("/api/automation-hub/pulp/api/v3/remotes/ansible/collection/0187a4f1-1bd1-7c2e-b3c4-5d6e7f809a1b/"))
	assert.Equal(t, "", ParsePulpIDFromURL("/api/automation-hub/pulp/api/v3/remotes/"))
	assert.Equal(t, "", ParsePulpIDFromURL(""))
}

func TestAppendTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://galaxy.ansible.com/", AppendTrailingSlash("https://galaxy.ansible.com"))
	assert.Equal(t, "https://galaxy.ansible.com/", AppendTrailingSlash("https://galaxy.ansible.com/"))
}

func TestErrorMessage(t *testing.T) {
	body := `{"name": ["This field is required."]}`
	err := &HTTPError{StatusCode: 400, Status: "Bad Request", Body: &body, URL: "/x"}
	assert.Equal(t, body, ErrorMessage(err))

	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
	assert.Equal(t, "", ErrorMessage(nil))

	noBody := &HTTPError{StatusCode: 500, Status: "Internal Server Error", URL: "/x"}
	assert.Equal(t, noBody.Error(), ErrorMessage(noBody))
	assert.True(t, IsTransient(noBody))
}
