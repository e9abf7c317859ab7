package users_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmedis/go-mobile-shell/users"
)

func TestIsSuperadmin(t *testing.T) {
	admin := users.UserRecord{Level: users.SuperadminLevel}
	assert.True(t, admin.IsSuperadmin())

	regular := users.UserRecord{Level: 5}
	assert.False(t, regular.IsSuperadmin())
}

func TestSameIdentity(t *testing.T) {
	a := users.UserRecord{ID: "1", Username: "budi", Domain: "klinik-a"}

	sameLogin := users.UserRecord{ID: "99", Username: "budi", Domain: "klinik-a"}
	assert.True(t, a.SameIdentity(&sameLogin), "identity is (username, domain), not the backend id")

	otherDomain := users.UserRecord{ID: "1", Username: "budi", Domain: "klinik-b"}
	assert.False(t, a.SameIdentity(&otherDomain))
	assert.False(t, a.SameIdentity(nil))
}

func TestWithGrants(t *testing.T) {
	record := users.UserRecord{Username: "budi"}

	merged := record.WithGrants([]string{"/obathabis", "", "/janji"}, []string{"Laporan", ""})
	assert.Equal(t, []string{"/obathabis", "/janji"}, merged.GrantedMenuURLs)
	assert.Equal(t, []string{"Laporan"}, merged.GrantedMenuHeaders)
	assert.Empty(t, record.GrantedMenuURLs, "receiver is not mutated")
}

func TestTokenNeverSerialized(t *testing.T) {
	record := users.UserRecord{Username: "budi", Token: "bearer-token"}

	raw, err := json.Marshal(record)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bearer-token")

	var decoded users.UserRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Empty(t, decoded.Token)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Budi Santoso", (&users.UserRecord{Username: "budi", FullName: "Budi Santoso"}).DisplayName())
	assert.Equal(t, "budi", (&users.UserRecord{Username: "budi"}).DisplayName())
	assert.Equal(t, "Unknown User", (&users.UserRecord{}).DisplayName())
}

func TestDomainInfo(t *testing.T) {
	assert.Equal(t, "Klinik Sehat", (&users.UserRecord{Domain: "klinik-a", ClinicName: "Klinik Sehat"}).DomainInfo())
	assert.Equal(t, "klinik-a", (&users.UserRecord{Domain: "klinik-a"}).DomainInfo())
	assert.Equal(t, "No Domain", (&users.UserRecord{}).DomainInfo())
}
