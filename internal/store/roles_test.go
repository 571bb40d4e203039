// ABOUTME: Tests for role grant operations
// ABOUTME: Covers Grant, idempotent re-grant, unknown roles, and listing

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleStore_Grant(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newUser("u-1", "alice@example.com", "alice")))

	err := store.GrantRole(ctx, "u-1", RoleUser)
	require.NoError(t, err)

	roles, err := store.ListUserRoles(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []RoleName{RoleUser}, roles)
}

func TestRoleStore_Grant_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newUser("u-1", "alice@example.com", "alice")))

	require.NoError(t, store.GrantRole(ctx, "u-1", RoleUser))
	require.NoError(t, store.GrantRole(ctx, "u-1", RoleUser), "granting an existing role should be idempotent")

	roles, err := store.ListUserRoles(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestRoleStore_Grant_UnknownRole(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, newUser("u-1", "alice@example.com", "alice")))

	err := store.GrantRole(ctx, "u-1", RoleName("SUPERUSER"))
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestRoleStore_List_Empty(t *testing.T) {
	store := setupTestStore(t)

	roles, err := store.ListUserRoles(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, roles, "should return empty slice, not nil")
	assert.Empty(t, roles)
}
