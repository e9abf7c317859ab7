package users

import "github.com/vmedis/go-mobile-shell/internal/utils"

// SuperadminLevel is the privilege level that bypasses all menu and tab
// filtering. A superadmin never carries a grant list; the level itself is
// the authorisation.
const SuperadminLevel = 1

// UserRecord is the result of a successful authentication, merged with the
// remote menu-access grants. JSON tags follow the backend's field names so a
// record can be persisted and reloaded without translation.
type UserRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"-"` // Bearer token - mirrored into the secure store, never serialized here
	GroupID  int    `json:"gr_id,omitempty"`
	AppID    string `json:"app_id,omitempty"`
	Level    int    `json:"lvl,omitempty"`
	Domain   string `json:"domain"`
	FullName string `json:"nama_lengkap,omitempty"`

	// Clinic / tenant display metadata
	ClinicID   int    `json:"kl_id,omitempty"`
	ClinicName string `json:"kl_nama,omitempty"`
	ClinicLogo string `json:"kl_logo,omitempty"`
	Logo       string `json:"logo,omitempty"`
	AppKind    int    `json:"app_jenis,omitempty"`
	Notes      string `json:"keterangan,omitempty"`
	AppReg     string `json:"app_reg,omitempty"`

	// GrantedMenuURLs holds the backend menu-URLs this user may reach.
	// Empty means "no access" for regular users and is the normal state for
	// superadmins, who bypass filtering entirely.
	GrantedMenuURLs    []string `json:"akses_menu,omitempty"`
	GrantedMenuHeaders []string `json:"akses_menu_head,omitempty"`
}

// IsSuperadmin reports whether this user bypasses menu authorisation.
func (u *UserRecord) IsSuperadmin() bool {
	return u.Level == SuperadminLevel
}

// DisplayName returns the best available human-readable name.
func (u *UserRecord) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown User"
}

// DomainInfo returns the clinic name if known, otherwise the tenant domain.
func (u *UserRecord) DomainInfo() string {
	if u.ClinicName != "" {
		return u.ClinicName
	}
	if u.Domain != "" {
		return u.Domain
	}
	return "No Domain"
}

// SameIdentity reports whether two records refer to the same login identity.
// Identity is the (username, domain) pair, not the backend user id.
func (u *UserRecord) SameIdentity(other *UserRecord) bool {
	if other == nil {
		return false
	}
	return u.Username == other.Username && u.Domain == other.Domain
}

// WithGrants returns a copy of the record with the grant lists replaced.
func (u UserRecord) WithGrants(urls, headers []string) UserRecord {
	u.GrantedMenuURLs = utils.NonEmptyStrings(urls)
	u.GrantedMenuHeaders = utils.NonEmptyStrings(headers)
	return u
}
