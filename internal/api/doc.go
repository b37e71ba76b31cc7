// Package api is the thin REST/JSON layer between automation-console and its
// backends: the controller, the event-driven automation (EDA) service, and
// the content hub with its Pulp API.
//
// # Requests
//
// A Client is bound to one server URL. Every request carries:
//
//   - the cookie jar of the client (credentials included)
//   - the CSRF header, echoed from the CSRF cookie the server set
//   - an Authorization header when a bearer token is configured
//
// Mutating requests (Post, Patch, Delete) return a Result. When the server
// replies 202 with {"task": "..."} the work continues server side and
// Result.Deferred reports true; the caller waits with package task.
//
// # Errors
//
//   - *HTTPError: status >= 400, with status code, status text and raw body
//     (nil when the body could not be read)
//   - *NetworkError: no response (connection failure or cancellation);
//     IsCanceled tells the two apart
//   - ErrInvalidInput: malformed paths or identifiers, raised before any I/O
//
// IsUnauthorized exposes 401 replies so session-aware callers can prompt for
// login.
//
// # Envelopes
//
// List endpoints use one of two shapes, selected explicitly with Envelope:
//
//	EnvelopeController  {"results": [...], "count": 3, "next": "..."}
//	EnvelopeHub         {"data": [...], "meta": {"count": 3}, "links": {"next": "..."}}
//
// # Paths
//
//	paths := api.Paths{EDAPrefix: "/api/eda/v1", HubPrefix: api.HubPrefix("", "galaxy")}
//	paths.EDA("/credentials/")                         // /api/eda/v1/credentials/
//	paths.Pulp("/remotes/ansible/collection/{}/", id)  // /api/galaxy/pulp/api/v3/remotes/...
package api
