package pulseapi

import "time"

// SecurityStatus is the subset of GET /api/security/status the console reads.
type SecurityStatus struct {
	RequiresAuth       bool   `json:"requiresAuth"`
	APITokenConfigured bool   `json:"apiTokenConfigured"`
	APITokenHint       string `json:"apiTokenHint,omitempty"`
	HasAuthentication  bool   `json:"hasAuthentication"`
	OIDCEnabled        bool   `json:"oidcEnabled,omitempty"`
	OIDCIssuer         string `json:"oidcIssuer,omitempty"`
}

// APIToken is the display record of an API token. The raw secret is only
// ever returned by the create and regenerate calls.
type APIToken struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	Suffix    string    `json:"suffix"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  Timestamp `json:"lastUsedAt,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
}

// CreateTokenRequest asks for a new API token limited to Scopes.
type CreateTokenRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes,omitempty"`
}

// CreatedToken carries the one-time raw secret together with its record.
type CreatedToken struct {
	Token  string   `json:"token"`
	Record APIToken `json:"record"`
}

// Host is a host agent as pushed over the live channel or returned by /api/state.
type Host struct {
	ID              string     `json:"id"`
	Hostname        string     `json:"hostname"`
	DisplayName     string     `json:"displayName,omitempty"`
	Platform        string     `json:"platform,omitempty"`
	OSName          string     `json:"osName,omitempty"`
	Status          string     `json:"status"`
	LastSeen        Timestamp  `json:"lastSeen"`
	IntervalSeconds int        `json:"intervalSeconds,omitempty"`
	TokenRevokedAt  *Timestamp `json:"tokenRevokedAt,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Memory          Memory     `json:"memory"`
	UptimeSeconds   int64      `json:"uptimeSeconds,omitempty"`
	AgentVersion    string     `json:"agentVersion,omitempty"`
}

// Name returns the display name, falling back to the hostname.
func (h Host) Name() string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	return h.Hostname
}

// Memory is a host memory sample in bytes.
type Memory struct {
	Total int64   `json:"total"`
	Used  int64   `json:"used"`
	Usage float64 `json:"usage"`
}

// HostLookup is the result of the host lookup endpoint.
type HostLookup struct {
	ID           string    `json:"id"`
	Hostname     string    `json:"hostname"`
	DisplayName  string    `json:"displayName,omitempty"`
	Status       string    `json:"status"`
	Connected    bool      `json:"connected"`
	LastSeen     Timestamp `json:"lastSeen"`
	AgentVersion string    `json:"agentVersion,omitempty"`
}

// HostPatch updates editable host agent settings. Nil fields are left alone.
type HostPatch struct {
	DisplayName *string  `json:"displayName,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Guest is a VM or container in the live state.
type Guest struct {
	ID     string   `json:"id"`
	VMID   int      `json:"vmid"`
	Name   string   `json:"name"`
	Node   string   `json:"node"`
	Type   string   `json:"type"`
	Status string   `json:"status"`
	Tags   []string `json:"tags,omitempty"`
}

// Storage is a storage pool in the live state.
type Storage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Node   string `json:"node"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// State is a snapshot of live resources.
type State struct {
	Hosts      []Host    `json:"hosts"`
	VMs        []Guest   `json:"vms"`
	Containers []Guest   `json:"containers"`
	Storage    []Storage `json:"storage"`
	LastUpdate Timestamp `json:"lastUpdate"`
}

// Organization is a tenant in a multi-organization deployment.
type Organization struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	OwnerUserID string    `json:"ownerUserId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is a user's membership in an organization.
type Member struct {
	UserID  string    `json:"userId"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
	AddedBy string    `json:"addedBy,omitempty"`
}

// BillingStatus is an organization's subscription state.
type BillingStatus struct {
	Plan        string    `json:"plan"`
	Status      string    `json:"status"`
	TrialEndsAt Timestamp `json:"trialEndsAt,omitempty"`
	HostLimit   int       `json:"hostLimit"`
	HostsUsed   int       `json:"hostsUsed"`
}

// Share grants another organization access to one resource.
type Share struct {
	ID           string    `json:"id"`
	SourceOrgID  string    `json:"sourceOrgId"`
	TargetOrgID  string    `json:"targetOrgId"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId"`
	ResourceName string    `json:"resourceName,omitempty"`
	AccessRole   string    `json:"accessRole"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateShareRequest is the body of a share creation call.
type CreateShareRequest struct {
	TargetOrgID  string `json:"targetOrgId"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	ResourceName string `json:"resourceName,omitempty"`
	AccessRole   string `json:"accessRole"`
}

// SSO provider types.
const (
	ProviderOIDC = "oidc"
	ProviderSAML = "saml"
)

// SSOProvider is an identity provider configuration.
type SSOProvider struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Enabled        bool     `json:"enabled"`
	IssuerURL      string   `json:"issuerUrl,omitempty"`
	ClientID       string   `json:"clientId,omitempty"`
	ClientSecret   string   `json:"clientSecret,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	MetadataURL    string   `json:"metadataUrl,omitempty"`
	MetadataXML    string   `json:"metadataXml,omitempty"`
	SSOURL         string   `json:"ssoUrl,omitempty"`
	Certificate    string   `json:"certificate,omitempty"`
	AllowedDomains []string `json:"allowedDomains,omitempty"`
	GroupsClaim    string   `json:"groupsClaim,omitempty"`
}

// SSOTestResult is the outcome of a provider connection test.
type SSOTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MetadataPreviewRequest asks the backend to fetch and parse IdP metadata.
type MetadataPreviewRequest struct {
	MetadataURL string `json:"metadataUrl,omitempty"`
	MetadataXML string `json:"metadataXml,omitempty"`
}

// IdPMetadata is parsed SAML identity provider metadata.
type IdPMetadata struct {
	EntityID      string   `json:"entityId"`
	SSOURL        string   `json:"ssoUrl"`
	SLOURL        string   `json:"sloUrl,omitempty"`
	Certificates  []string `json:"certificates,omitempty"`
	NameIDFormats []string `json:"nameIdFormats,omitempty"`
}

// DiscoveredServer is one service found by a network scan.
type DiscoveredServer struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Type     string `json:"type"`
	Version  string `json:"version,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Release  string `json:"release,omitempty"`
}

// DiscoveryResult is the response of the discovery endpoints.
type DiscoveryResult struct {
	Servers   []DiscoveredServer `json:"servers"`
	Errors    []string           `json:"errors,omitempty"`
	Cached    bool               `json:"cached,omitempty"`
	Scanning  bool               `json:"scanning,omitempty"`
	Subnet    string             `json:"subnet,omitempty"`
	UpdatedAt Timestamp          `json:"updated,omitempty"`
}

// GuestMetadata is user-managed metadata attached to a guest.
type GuestMetadata struct {
	ID          string   `json:"id"`
	CustomURL   string   `json:"customUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
