package domain

// ProviderType identifies a remote file provider
type ProviderType string

const (
	// Transfer protocols
	ProviderTypeSFTP ProviderType = "sftp"
	ProviderTypeFTPS ProviderType = "ftps"

	// OAuth cloud drives
	ProviderTypeGoogleDrive ProviderType = "gdrive"
	ProviderTypeDropbox     ProviderType = "dropbox"
)

// SupportedProviders returns the four providers the engine ships with
func SupportedProviders() []ProviderType {
	return []ProviderType{
		ProviderTypeSFTP,
		ProviderTypeFTPS,
		ProviderTypeGoogleDrive,
		ProviderTypeDropbox,
	}
}

// IsSupported reports whether pt is a known provider type.
func (pt ProviderType) IsSupported() bool {
	switch pt {
	case ProviderTypeSFTP, ProviderTypeFTPS, ProviderTypeGoogleDrive, ProviderTypeDropbox:
		return true
	}
	return false
}

// IsCloudDrive reports whether the provider authenticates via OAuth and
// addresses files by opaque ids rather than paths.
func (pt ProviderType) IsCloudDrive() bool {
	return pt == ProviderTypeGoogleDrive || pt == ProviderTypeDropbox
}

// IsTransfer reports whether the provider is a session-based transfer protocol.
func (pt ProviderType) IsTransfer() bool {
	return pt == ProviderTypeSFTP || pt == ProviderTypeFTPS
}

// DisplayName returns a human-readable name for a provider.
func (pt ProviderType) DisplayName() string {
	switch pt {
	case ProviderTypeSFTP:
		return "SFTP"
	case ProviderTypeFTPS:
		return "FTPS"
	case ProviderTypeGoogleDrive:
		return "Google Drive"
	case ProviderTypeDropbox:
		return "Dropbox"
	default:
		return string(pt)
	}
}

// ProviderConfig holds the OAuth app registration for a cloud drive provider.
// Transfer providers need no app registration.
type ProviderConfig struct {
	ProviderType ProviderType `json:"provider_type"`
	ClientID     string       `json:"client_id"`
	ClientSecret string       `json:"-"` // Never serialize
	Enabled      bool         `json:"enabled"`
}

// IsConfigured reports whether the registration is usable.
func (c *ProviderConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
