// ABOUTME: View definitions for every listable resource: endpoint, envelope, columns, filters and key
// ABOUTME: Definitions are static and resolved against configured server paths at use

package resources

import (
	"strconv"
	"time"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/query"
	"github.com/2389/automation-console/internal/selection"
)

// Service names the backend a resource lives on.
type Service string

const (
	ServiceController Service = "controller"
	ServiceEDA        Service = "eda"
	ServiceHub        Service = "hub"
)

// Column is a table column with a renderer for its cell.
type Column[T any] struct {
	Header  string
	SortKey string
	Value   func(T) string
}

// Definition describes one resource list.
type Definition[T any] struct {
	ID       string // "<service>/<resource>", also the saved view id
	Title    string
	Service  Service
	Envelope api.Envelope
	Columns  []Column[T]
	Filters  []query.ToolbarFilter
	Params   query.Params
	KeyFn    selection.KeyFunc[T]

	list func(api.Paths) string
	del  func(api.Paths, T) string
}

// ListPath returns the list endpoint.
func (d Definition[T]) ListPath(p api.Paths) string {
	return d.list(p)
}

// DeletePath returns the endpoint deleting item, or "" when the resource
// cannot be deleted or item lacks the identifier the path needs.
func (d Definition[T]) DeletePath(p api.Paths, item T) string {
	if d.del == nil {
		return ""
	}
	return d.del(p, item)
}

// CanDelete reports whether items of this resource can be deleted.
func (d Definition[T]) CanDelete() bool {
	return d.del != nil
}

// TableColumns returns the columns without their renderers.
func (d Definition[T]) TableColumns() []query.TableColumn {
	out := make([]query.TableColumn, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = query.TableColumn{Header: c.Header, SortKey: c.SortKey}
	}
	return out
}

// Headers returns the column headers.
func (d Definition[T]) Headers() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Header
	}
	return out
}

// Rows renders items as table cells.
func (d Definition[T]) Rows(items []T) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			row[i] = c.Value(item)
		}
		rows = append(rows, row)
	}
	return rows
}

// FilterKeys returns the accepted filter keys.
func (d Definition[T]) FilterKeys() []string {
	out := make([]string, len(d.Filters))
	for i, f := range d.Filters {
		out[i] = f.Key
	}
	return out
}

func nameFilter() query.ToolbarFilter {
	return query.ToolbarFilter{Key: "name", Label: "Name", Query: "name"}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func idPath(prefix func(string, ...string) string, template string) func(int) string {
	return func(id int) string { return prefix(template, strconv.Itoa(id)) }
}

// Credentials lists EDA credentials.
var Credentials = Definition[EdaCredential]{
	ID:       "eda/credentials",
	Title:    "Credentials",
	Service:  ServiceEDA,
	Envelope: api.EnvelopeController,
	Columns: []Column[EdaCredential]{
		{Header: "Name", SortKey: "name", Value: func(c EdaCredential) string { return c.Name }},
		{Header: "Type", SortKey: "credential_type", Value: func(c EdaCredential) string { return c.CredentialType }},
		{Header: "Username", Value: func(c EdaCredential) string { return c.Username }},
		{Header: "Created", SortKey: "created_at", Value: func(c EdaCredential) string { return formatTime(c.CreatedAt) }},
	},
	Filters: []query.ToolbarFilter{
		nameFilter(),
		{Key: "type", Label: "Type", Query: "credential_type"},
	},
	KeyFn: IDKey[EdaCredential],
	list:  func(p api.Paths) string { return p.EDA("/credentials/") },
	del: func(p api.Paths, c EdaCredential) string {
		return idPath(p.EDA, "/credentials/{}/")(c.ID)
	},
}

// DecisionEnvironments lists EDA decision environments.
var DecisionEnvironments = Definition[EdaDecisionEnvironment]{
	ID:       "eda/decision-environments",
	Title:    "Decision Environments",
	Service:  ServiceEDA,
	Envelope: api.EnvelopeController,
	Columns: []Column[EdaDecisionEnvironment]{
		{Header: "Name", SortKey: "name", Value: func(d EdaDecisionEnvironment) string { return d.Name }},
		{Header: "Image", Value: func(d EdaDecisionEnvironment) string { return d.ImageURL }},
		{Header: "Description", Value: func(d EdaDecisionEnvironment) string { return d.Description }},
		{Header: "Created", SortKey: "created_at", Value: func(d EdaDecisionEnvironment) string { return formatTime(d.CreatedAt) }},
	},
	Filters: []query.ToolbarFilter{nameFilter()},
	KeyFn:   IDKey[EdaDecisionEnvironment],
	list:    func(p api.Paths) string { return p.EDA("/decision-environments/") },
	del: func(p api.Paths, d EdaDecisionEnvironment) string {
		return idPath(p.EDA, "/decision-environments/{}/")(d.ID)
	},
}

// RulebookActivations lists EDA rulebook activations.
var RulebookActivations = Definition[EdaRulebookActivation]{
	ID:       "eda/activations",
	Title:    "Rulebook Activations",
	Service:  ServiceEDA,
	Envelope: api.EnvelopeController,
	Columns: []Column[EdaRulebookActivation]{
		{Header: "Name", SortKey: "name", Value: func(a EdaRulebookActivation) string { return a.Name }},
		{Header: "Status", SortKey: "status", Value: func(a EdaRulebookActivation) string { return a.Status }},
		{Header: "Enabled", Value: func(a EdaRulebookActivation) string { return strconv.FormatBool(a.IsEnabled) }},
		{Header: "Rules", Value: func(a EdaRulebookActivation) string { return strconv.Itoa(a.RuleCount) }},
		{Header: "Restarts", Value: func(a EdaRulebookActivation) string { return strconv.Itoa(a.RestartCount) }},
	},
	Filters: []query.ToolbarFilter{
		nameFilter(),
		{Key: "status", Label: "Status", Query: "status"},
	},
	KeyFn: IDKey[EdaRulebookActivation],
	list:  func(p api.Paths) string { return p.EDA("/activations/") },
	del: func(p api.Paths, a EdaRulebookActivation) string {
		return idPath(p.EDA, "/activations/{}/")(a.ID)
	},
}

// Rules lists the rules of activated rulebooks. Rules are read only.
var Rules = Definition[EdaRule]{
	ID:       "eda/rules",
	Title:    "Rules",
	Service:  ServiceEDA,
	Envelope: api.EnvelopeController,
	Columns: []Column[EdaRule]{
		{Header: "Name", SortKey: "name", Value: func(r EdaRule) string { return r.Name }},
		{Header: "Fired", SortKey: "fired_count", Value: func(r EdaRule) string { return strconv.Itoa(r.FiredCount) }},
		{Header: "Last fired", Value: func(r EdaRule) string {
			if r.LastFiredAt == nil {
				return ""
			}
			return formatTime(*r.LastFiredAt)
		}},
	},
	Filters: []query.ToolbarFilter{nameFilter()},
	KeyFn:   IDKey[EdaRule],
	list:    func(p api.Paths) string { return p.EDA("/rules/") },
}

// Users lists EDA users.
var Users = Definition[EdaUser]{
	ID:       "eda/users",
	Title:    "Users",
	Service:  ServiceEDA,
	Envelope: api.EnvelopeController,
	Columns: []Column[EdaUser]{
		{Header: "Username", SortKey: "username", Value: func(u EdaUser) string { return u.Username }},
		{Header: "First name", SortKey: "first_name", Value: func(u EdaUser) string { return u.FirstName }},
		{Header: "Last name", SortKey: "last_name", Value: func(u EdaUser) string { return u.LastName }},
		{Header: "Email", Value: func(u EdaUser) string { return u.Email }},
	},
	Filters: []query.ToolbarFilter{
		{Key: "username", Label: "Username", Query: "username"},
	},
	KeyFn: IDKey[EdaUser],
	list:  func(p api.Paths) string { return p.EDA("/users/") },
	del: func(p api.Paths, u EdaUser) string {
		return idPath(p.EDA, "/users/{}/")(u.ID)
	},
}

// Remotes lists Pulp collection remotes. Pulp lists use the controller envelope.
var Remotes = Definition[HubRemote]{
	ID:       "hub/remotes",
	Title:    "Remotes",
	Service:  ServiceHub,
	Envelope: api.EnvelopeController,
	Columns: []Column[HubRemote]{
		{Header: "Name", SortKey: "name", Value: func(r HubRemote) string { return r.Name }},
		{Header: "URL", SortKey: "url", Value: func(r HubRemote) string { return r.URL }},
		{Header: "Updated", SortKey: "pulp_last_updated", Value: func(r HubRemote) string { return r.PulpLastUpdated }},
	},
	Filters: []query.ToolbarFilter{
		{Key: "name", Label: "Name", Query: "name__icontains"},
	},
	KeyFn: PulpHrefKey[HubRemote],
	list:  func(p api.Paths) string { return p.Pulp("/remotes/") },
	del: func(p api.Paths, r HubRemote) string {
		id := api.ParsePulpIDFromURL(r.PulpHref)
		if id == "" {
			return ""
		}
		return p.Pulp("/remotes/ansible/collection/{}/", id)
	},
}

// Namespaces lists hub collection namespaces from the hub UI API.
var Namespaces = Definition[HubNamespace]{
	ID:       "hub/namespaces",
	Title:    "Namespaces",
	Service:  ServiceHub,
	Envelope: api.EnvelopeHub,
	Columns: []Column[HubNamespace]{
		{Header: "Name", SortKey: "name", Value: func(n HubNamespace) string { return n.Name }},
		{Header: "Company", SortKey: "company", Value: func(n HubNamespace) string { return n.Company }},
		{Header: "Description", Value: func(n HubNamespace) string { return n.Description }},
	},
	Filters: []query.ToolbarFilter{
		{Key: "keywords", Label: "Keywords", Query: "keywords"},
	},
	KeyFn: NameKey[HubNamespace],
	list:  func(p api.Paths) string { return p.Hub("/_ui/v1/namespaces/") },
	del: func(p api.Paths, n HubNamespace) string {
		return p.Hub("/_ui/v1/namespaces/{}/", n.Name)
	},
}

// Teams lists controller teams.
var Teams = Definition[ControllerTeam]{
	ID:       "controller/teams",
	Title:    "Teams",
	Service:  ServiceController,
	Envelope: api.EnvelopeController,
	Columns: []Column[ControllerTeam]{
		{Header: "Name", SortKey: "name", Value: func(t ControllerTeam) string { return t.Name }},
		{Header: "Organization", SortKey: "organization__name", Value: func(t ControllerTeam) string {
			return t.SummaryFields.Organization.Name
		}},
		{Header: "Description", Value: func(t ControllerTeam) string { return t.Description }},
		{Header: "Created", SortKey: "created", Value: func(t ControllerTeam) string { return t.Created }},
	},
	Filters: []query.ToolbarFilter{
		{Key: "name", Label: "Name", Query: "name__icontains"},
		{Key: "organization", Label: "Organization", Query: "organization__name__icontains"},
	},
	KeyFn: IDKey[ControllerTeam],
	list:  func(p api.Paths) string { return p.Controller("/teams/") },
	del: func(p api.Paths, t ControllerTeam) string {
		return idPath(p.Controller, "/teams/{}/")(t.ID)
	},
}

// Names lists every definition id, in display order.
var Names = []string{
	Credentials.ID,
	DecisionEnvironments.ID,
	RulebookActivations.ID,
	Rules.ID,
	Users.ID,
	Remotes.ID,
	Namespaces.ID,
	Teams.ID,
}
