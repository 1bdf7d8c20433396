package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken("0b6e9f7e-6f59-4a3f-9a1c-8d1b2c3d4e5f")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "0b6e9f7e-6f59-4a3f-9a1c-8d1b2c3d4e5f", claims.SessionID)
}

func TestJWTService_RejectsInvalidTokens(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	other := NewJWTService("other-secret", time.Hour)
	expired := NewJWTService("test-secret", -time.Minute)

	foreign, err := other.GenerateToken("session")
	require.NoError(t, err)
	stale, err := expired.GenerateToken("session")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Garbage", token: "not-a-token"},
		{name: "Wrong secret", token: foreign},
		{name: "Expired", token: stale},
		{name: "Empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ParseToken(tt.token)
			require.Error(t, err)
			require.Nil(t, claims)
		})
	}
}
