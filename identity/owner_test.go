package identity

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveOwner(t *testing.T) {
	real := "3f2c8a1e-9b47-4d6a-8f21-0c5d9e7b3a10"
	assert.Equal(t, real, EffectiveOwner(real))
	assert.Equal(t, SentinelOwner, EffectiveOwner(""))
	assert.Equal(t, SentinelOwner, EffectiveOwner("mock-user"))
	assert.True(t, IsSentinel(EffectiveOwner("not-a-uuid")))
}

func TestContextEffective(t *testing.T) {
	assert.Equal(t, SentinelOwner, Context{}.Effective())
	assert.Equal(t, "3f2c8a1e-9b47-4d6a-8f21-0c5d9e7b3a10",
		Context{Owner: "3f2c8a1e-9b47-4d6a-8f21-0c5d9e7b3a10"}.Effective())
}

func TestJWTRoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	token, err := auth.GenerateToken("owner-1", time.Hour)
	require.NoError(t, err)

	owner, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)

	_, err = auth.ValidateToken(token + "x")
	require.Error(t, err)

	other := NewJWTAuth("other-secret")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestOwnerFromRequest(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	token, err := auth.GenerateToken("owner-1", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/transactions", nil)
	_, err = auth.OwnerFromRequest(r)
	require.Error(t, err)

	r.Header.Set("Authorization", token)
	_, err = auth.OwnerFromRequest(r)
	require.Error(t, err)

	r.Header.Set("Authorization", "Bearer "+token)
	owner, err := auth.OwnerFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
}
