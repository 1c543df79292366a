package users_test

import (
	"testing"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/users"
	fakeuserrepo "github.com/jrsteele09/go-erp-client/users/repofake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Sh0rt", true},
		{"alllowercase1", true},
		{"ALLUPPERCASE1", true},
		{"NoNumbersHere", true},
		{"Warehouse2024", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := users.HashPassword("Warehouse2024")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	assert.True(t, u.CheckPassword("Warehouse2024"))
	assert.False(t, u.CheckPassword("warehouse2024"))
}

func TestFakeUserRepoScopesEmailsByTenant(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Upsert(&users.User{Email: "ops@example.com", SchemaName: "acme", FirstName: "Ada"}))
	require.NoError(t, repo.Upsert(&users.User{Email: "ops@example.com", SchemaName: "globex", FirstName: "Grace"}))

	acme, err := repo.GetByEmail("acme", "OPS@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", acme.FirstName)
	assert.NotEmpty(t, acme.ID)

	_, err = repo.GetByEmail("initech", "ops@example.com")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	list, err := repo.List("globex", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Grace", list[0].FirstName)

	require.NoError(t, repo.SetLastLogin(acme.ID))
	assert.False(t, acme.LastLogin.IsZero())

	require.NoError(t, repo.Delete("acme", "ops@example.com"))
	_, err = repo.GetByID(acme.ID)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
