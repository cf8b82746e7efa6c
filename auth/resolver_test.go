package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasuku-app/tasuku/auth"
)

func TestResolveCreatesUserOnFirstLogin(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}

	profile := &auth.Profile{ID: "d123", Username: "alice", AccessToken: "tok-1"}
	user, err := resolver.Resolve(context.Background(), auth.ProviderDiscord, profile)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "d123", user.DiscordID)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, "tok-1", user.AccessToken)
	assert.Greater(t, user.ID, int64(0))
	assert.Equal(t, 1, store.count())
}

func TestResolveIsIdempotent(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}
	profile := &auth.Profile{ID: "d123", Username: "alice"}

	first, err := resolver.Resolve(context.Background(), auth.ProviderDiscord, profile)
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), auth.ProviderDiscord, profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.count(), "second resolve must not create a new row")
}

func TestResolveRefreshesProfileFields(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}

	_, err := resolver.Resolve(context.Background(), auth.ProviderGoogle, &auth.Profile{
		ID: "g1", DisplayName: "Bob", Email: "old@example.com", AvatarURL: "old.png", AccessToken: "t1",
	})
	require.NoError(t, err)

	user, err := resolver.Resolve(context.Background(), auth.ProviderGoogle, &auth.Profile{
		ID: "g1", DisplayName: "Bob", Email: "new@example.com", AvatarURL: "new.png", AccessToken: "t2",
	})
	require.NoError(t, err)

	// last write wins, field by field
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "new.png", user.Avatar)
	assert.Equal(t, "t2", user.AccessToken)

	stored, err := store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", stored.AccessToken)
}

func TestResolveDoesNotLinkAcrossProviders(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}

	// Same real-world email via two providers stays two distinct users.
	viaDiscord, err := resolver.Resolve(context.Background(), auth.ProviderDiscord,
		&auth.Profile{ID: "d1", Username: "carol", Email: "carol@example.com"})
	require.NoError(t, err)

	viaGoogle, err := resolver.Resolve(context.Background(), auth.ProviderGoogle,
		&auth.Profile{ID: "g1", DisplayName: "Carol", Email: "carol@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, viaDiscord.ID, viaGoogle.ID)
	assert.Equal(t, 2, store.count())
}

func TestResolveRetriesOnceAfterLostCreateRace(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}

	// On the first create, sneak the "winner" row in so the insert hits the
	// uniqueness constraint, exactly like a concurrent request would.
	raced := false
	store.createHook = func(m *memStore, u *auth.User) error {
		if raced {
			return nil
		}
		raced = true
		winner := &auth.User{Name: "winner", DiscordID: u.DiscordID, AccessToken: "winner-tok"}
		m.nextID++
		winner.ID = m.nextID
		m.users[winner.ID] = winner
		return nil // fall through: the duplicate check now fires
	}

	user, err := resolver.Resolve(context.Background(), auth.ProviderDiscord,
		&auth.Profile{ID: "d9", Username: "loser", AccessToken: "loser-tok"})
	require.NoError(t, err)

	assert.True(t, raced)
	assert.Equal(t, 1, store.count(), "the winner's row is the only row")
	assert.Equal(t, "winner", user.Name)
	// the loser's refresh still applied last-write-wins fields
	assert.Equal(t, "loser-tok", user.AccessToken)
}

func TestResolveConcurrentSameIdentity(t *testing.T) {
	store := newMemStore()
	resolver := &auth.Resolver{Users: store}
	profile := &auth.Profile{ID: "d777", Username: "dave"}

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := resolver.Resolve(context.Background(), auth.ProviderDiscord, profile)
			if assert.NoError(t, err) {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.count(), "exactly one row for the identity")
	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestResolveRejectsEmptyProfile(t *testing.T) {
	resolver := &auth.Resolver{Users: newMemStore()}

	_, err := resolver.Resolve(context.Background(), auth.ProviderDiscord, nil)
	require.Error(t, err)

	_, err = resolver.Resolve(context.Background(), auth.ProviderDiscord, &auth.Profile{})
	require.Error(t, err)
}
