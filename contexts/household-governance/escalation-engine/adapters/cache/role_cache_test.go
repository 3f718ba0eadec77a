package cache

import (
	"context"
	"testing"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"

	"github.com/stretchr/testify/require"
)

func TestRoleCacheExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache, err := NewRoleCache(0)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "fam-1", "bob", entities.RoleMember, now.Add(time.Minute)))
	role, hit, err := cache.Get(ctx, "fam-1", "bob", now)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, entities.RoleMember, role)

	_, hit, err = cache.Get(ctx, "fam-2", "bob", now)
	require.NoError(t, err)
	require.False(t, hit)

	_, hit, err = cache.Get(ctx, "fam-1", "bob", now.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, hit)
	require.Zero(t, cache.Len())

	require.NoError(t, cache.Set(ctx, "fam-1", "bob", "", now.Add(time.Minute)))
	role, hit, err = cache.Get(ctx, "fam-1", "bob", now)
	require.NoError(t, err)
	require.True(t, hit)
	require.Empty(t, role)

	require.NoError(t, cache.Invalidate(ctx, "fam-1", "bob"))
	_, hit, err = cache.Get(ctx, "fam-1", "bob", now)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestRoleCacheIsBounded(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)
	cache, err := NewRoleCache(2)
	require.NoError(t, err)

	for _, userID := range []string{"alice", "bob", "carol"} {
		require.NoError(t, cache.Set(ctx, "fam-1", userID, entities.RoleAdmin, expires))
	}
	require.Equal(t, 2, cache.Len())
	_, hit, err := cache.Get(ctx, "fam-1", "alice", time.Now())
	require.NoError(t, err)
	require.False(t, hit)
}
