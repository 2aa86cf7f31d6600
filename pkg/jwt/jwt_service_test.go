package jwt

import (
	"testing"

	"WasteGuard-Backend/domain"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := &jwtService{secretKey: "test-secret", issuer: "WASTEGUARD"}

	token := svc.GenerateTokenUser("user-123", domain.RoleUser)
	require.NotEmpty(t, token)

	userID, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
	require.Equal(t, domain.RoleUser, role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuing := &jwtService{secretKey: "secret-a", issuer: "WASTEGUARD"}
	validating := &jwtService{secretKey: "secret-b", issuer: "WASTEGUARD"}

	token := issuing.GenerateTokenUser("user-123", domain.RoleUser)

	_, _, err := validating.GetUserIDByToken(token)
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestTokenRejectsGarbage(t *testing.T) {
	svc := &jwtService{secretKey: "test-secret", issuer: "WASTEGUARD"}

	_, _, err := svc.GetUserIDByToken("not.a.token")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}
