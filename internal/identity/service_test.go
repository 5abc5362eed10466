package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetcc/homefinders-service/internal/store"
)

func newTestService() (Service, *store.MemoryRepository[Identity, *Identity]) {
	repo := store.NewMemoryRepository[Identity](store.WithUniqueFields("email"))
	return NewService(repo, zap.NewNop()), repo
}

func TestSignupCreatesUserOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	res, created, err := svc.Signup(ctx, "Ann", "ann@x.com", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, res.InsertedID)

	res, created, err = svc.Signup(ctx, "Ann again", "ann@x.com", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, res.InsertedID)

	all, err := repo.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, User, all[0].Role)
	assert.Equal(t, "Ann", all[0].Name)
}

func TestSignupRejectsMalformedEmail(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Signup(context.Background(), "Ann", "not-an-email", "")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
}

func TestResolveRole(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	res, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "")
	require.NoError(t, err)

	role, err := svc.ResolveRole(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, User, role)

	_, err = svc.SetRole(ctx, res.InsertedID, Agent)
	require.NoError(t, err)
	role, err = svc.ResolveRole(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, Agent, role)

	ok, err := svc.HasRole(ctx, "ann@x.com", Admin)
	require.NoError(t, err)
	assert.False(t, ok)

	role, err = svc.ResolveRole(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, Guest, role)

	// A stored role the service does not know counts as user.
	_, err = repo.UpdateByID(ctx, res.InsertedID, store.Fields{"role": "superuser"})
	require.NoError(t, err)
	role, err = svc.ResolveRole(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, User, role)
}

func TestSetRoleValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	res, _, err := svc.Signup(ctx, "Ann", "ann@x.com", "")
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, res.InsertedID, Role("owner"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	upd, err := svc.SetRole(ctx, res.InsertedID, Admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.ModifiedCount)
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"admin": Admin, "Agent": Agent, " USER ": User, "guest": Guest} {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
