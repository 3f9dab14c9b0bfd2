package util

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.NotEqual(t, id1, id2)
	assert.Len(t, id1, 36)
}

func TestResolveIdentity_PeerAddress(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.100:12345"

	assert.Equal(t, "192.168.1.100", ResolveIdentity(req, false, nil))
}

func TestResolveIdentity_PeerWinsOverForwardedByDefault(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	assert.Equal(t, "203.0.113.1", ResolveIdentity(req, false, nil))
}

func TestResolveIdentity_TrustedProxyUsesForwarded(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")

	trustedCIDRs, err := ParseTrustedCIDRs([]string{"192.168.0.0/16"})
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.1", ResolveIdentity(req, true, trustedCIDRs))
}

func TestResolveIdentity_UntrustedProxyIgnoresForwarded(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	trustedCIDRs, err := ParseTrustedCIDRs([]string{"192.168.0.0/16"})
	require.NoError(t, err)

	assert.Equal(t, "203.0.113.1", ResolveIdentity(req, true, trustedCIDRs))
}

func TestResolveIdentity_ForwardedWhenNoPeer(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ""
	req.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.1")

	assert.Equal(t, "198.51.100.7", ResolveIdentity(req, false, nil))
}

func TestResolveIdentity_UnknownSentinel(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "not-an-address"
	req.Header.Set("X-Forwarded-For", "garbage")

	assert.Equal(t, domain.UnknownIdentity, ResolveIdentity(req, true, nil))
}

func TestParseTrustedCIDRs(t *testing.T) {
	cidrs, err := ParseTrustedCIDRs([]string{"10.0.0.0/8", " ", "192.168.0.0/16"})
	require.NoError(t, err)
	assert.Len(t, cidrs, 2)

	_, err = ParseTrustedCIDRs([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	cidrs, err = ParseTrustedCIDRs(nil)
	assert.NoError(t, err)
	assert.Nil(t, cidrs)
}

func TestIdentityInCIDRs(t *testing.T) {
	cidrs, err := ParseTrustedCIDRs([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	assert.True(t, IdentityInCIDRs("10.1.2.3", cidrs))
	assert.False(t, IdentityInCIDRs("11.1.2.3", cidrs))
	assert.False(t, IdentityInCIDRs(domain.UnknownIdentity, cidrs))
}
