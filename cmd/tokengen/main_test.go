package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
)

func TestMint(t *testing.T) {
	id := uuid.New()

	token, actor, err := mint("secret", "operator", id.String(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: id, Role: domain.RoleOperator}, actor)

	claims, err := auth.NewJWTService("secret").ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, claims.Actor())
}

func TestMint_Errors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		role   string
		user   string
	}{
		{"empty secret", "", "client", ""},
		{"unknown role", "secret", "admin", ""},
		{"bad user id", "secret", "client", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := mint(tt.secret, tt.role, tt.user, time.Hour)
			assert.Error(t, err)
		})
	}
}
