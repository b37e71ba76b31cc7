// ABOUTME: Resource types returned by the controller, EDA and hub APIs
// ABOUTME: Each type exposes the accessors its key function needs

package resources

import "time"

// EdaCredential is a credential EDA uses when launching rulebooks.
type EdaCredential struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CredentialType string    `json:"credential_type"`
	Username       string    `json:"username"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
}

func (c EdaCredential) ResourceID() int { return c.ID }

// EdaDecisionEnvironment is a container image rulebooks run in.
type EdaDecisionEnvironment struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	CredentialID *int      `json:"credential_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

func (d EdaDecisionEnvironment) ResourceID() int { return d.ID }

// EdaRulebookActivation is a rulebook that has been activated to run.
type EdaRulebookActivation struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsEnabled    bool      `json:"is_enabled"`
	Status       string    `json:"status"`
	RestartCount int       `json:"restart_count"`
	RuleCount    int       `json:"rules_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a EdaRulebookActivation) ResourceID() int { return a.ID }

// EdaRule is a rule of an activated rulebook.
type EdaRule struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	FiredCount  int        `json:"fired_count"`
	LastFiredAt *time.Time `json:"last_fired_at"`
	Action      any        `json:"action"`
}

func (r EdaRule) ResourceID() int { return r.ID }

// EdaUser is an EDA user account.
type EdaUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u EdaUser) ResourceID() int { return u.ID }

// HubRemote is a Pulp collection remote.
type HubRemote struct {
	PulpHref            string         `json:"pulp_href"`
	PulpCreated         string         `json:"pulp_created,omitempty"`
	Name                string         `json:"name"`
	URL                 string         `json:"url"`
	CACert              string         `json:"ca_cert,omitempty"`
	ClientCert          string         `json:"client_cert,omitempty"`
	ClientKey           string         `json:"client_key,omitempty"`
	TLSValidation       bool           `json:"tls_validation"`
	ProxyURL            string         `json:"proxy_url,omitempty"`
	PulpLabels          map[string]any `json:"pulp_labels,omitempty"`
	PulpLastUpdated     string         `json:"pulp_last_updated,omitempty"`
	DownloadConcurrency *int           `json:"download_concurrency,omitempty"`
	MaxRetries          *int           `json:"max_retries,omitempty"`
	Policy              string         `json:"policy,omitempty"`
	TotalTimeout        *float64       `json:"total_timeout,omitempty"`
	ConnectTimeout      *float64       `json:"connect_timeout,omitempty"`
	SockConnectTimeout  *float64       `json:"sock_connect_timeout,omitempty"`
	SockReadTimeout     *float64       `json:"sock_read_timeout,omitempty"`
	Headers             []any          `json:"headers,omitempty"`
	RateLimit           *int           `json:"rate_limit,omitempty"`
	HiddenFields        []HiddenField  `json:"hidden_fields,omitempty"`
	RequirementsFile    string         `json:"requirements_file,omitempty"`
	AuthURL             string         `json:"auth_url,omitempty"`
	SignedOnly          bool           `json:"signed_only"`
	LastSyncTask        string         `json:"last_sync_task,omitempty"`
}

// HiddenField reports whether a write-only remote field is set.
type HiddenField struct {
	Name  string `json:"name"`
	IsSet bool   `json:"is_set"`
}

func (r HubRemote) ResourceHref() string { return r.PulpHref }
func (r HubRemote) ResourceName() string { return r.Name }

// HubNamespace is a collection namespace on the hub.
type HubNamespace struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

func (n HubNamespace) ResourceName() string { return n.Name }

// ControllerTeam is a team of the automation controller.
type ControllerTeam struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Organization  int    `json:"organization"`
	Created       string `json:"created"`
	Modified      string `json:"modified"`
	SummaryFields struct {
		Organization struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"organization"`
		UserCapabilities struct {
			Edit   bool `json:"edit"`
			Delete bool `json:"delete"`
		} `json:"user_capabilities"`
	} `json:"summary_fields"`
}

func (t ControllerTeam) ResourceID() int { return t.ID }
