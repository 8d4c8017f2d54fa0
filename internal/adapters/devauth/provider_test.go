package devauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

func newTestProvider(t *testing.T, cfg Config) *Provider {
	t.Helper()
	if cfg.Users == nil {
		users, err := ParseUsers("fac-1,ada@college.edu,secret; adm-1,root@college.edu,pw,admin")
		require.NoError(t, err)
		cfg.Users = users
	}
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	return p
}

func TestParseUsers(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed"), bcrypt.MinCost)
	require.NoError(t, err)

	users, err := ParseUsers(" a,a@x.edu,pw ;; b,b@x.edu," + string(hash) + ",admin;")
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "a", users[0].SubjectID)
	assert.NoError(t, bcrypt.CompareHashAndPassword(users[0].PasswordHash, []byte("pw")))
	assert.Nil(t, users[0].Claims)

	assert.Equal(t, hash, users[1].PasswordHash, "existing hashes are kept")
	assert.Equal(t, map[string]any{"role": "admin"}, users[1].Claims["user_metadata"])

	_, err = ParseUsers("only,two")
	assert.Error(t, err)
	_, err = ParseUsers("a,a@x.edu,")
	assert.Error(t, err)
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)

	_, err = NewProvider(Config{Users: []User{{SubjectID: "a", Email: "a@x.edu"}}})
	assert.Error(t, err, "missing password")

	dup := []User{
		{SubjectID: "a", Email: "a@x.edu", PasswordHash: []byte("x")},
		{SubjectID: "b", Email: "A@x.edu", PasswordHash: []byte("x")},
	}
	_, err = NewProvider(Config{Users: dup})
	assert.Error(t, err)
}

func TestProvider_SignInLifecycle(t *testing.T) {
	p := newTestProvider(t, Config{})
	ctx := context.Background()

	var events []ports.SessionEventKind
	sub := p.Subscribe(func(ev ports.SessionEvent) { events = append(events, ev.Kind) })
	defer sub.Unsubscribe()

	cur, err := p.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	sess, err := p.SignInWithPassword(ctx, "ADA@college.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, "fac-1", sess.SubjectID)
	assert.Equal(t, "ada@college.edu", sess.Email)
	assert.NotEmpty(t, sess.AccessToken)
	assert.False(t, sess.Expired(time.Now()))

	cur, err = p.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, sess.AccessToken, cur.AccessToken)

	refreshed, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, sess.AccessToken, refreshed.AccessToken)

	resumed, err := p.Resume(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, resumed, "old token no longer valid after refresh")

	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx))

	resumed, err = p.Resume(ctx, refreshed.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, resumed)

	assert.Equal(t, []ports.SessionEventKind{
		ports.SessionSignedIn, ports.SessionTokenRefreshed, ports.SessionSignedOut,
	}, events)
}

func TestProvider_InvalidCredentials(t *testing.T) {
	p := newTestProvider(t, Config{})

	for _, tc := range []struct{ email, password string }{
		{"ada@college.edu", "wrong"},
		{"nobody@college.edu", "secret"},
	} {
		_, err := p.SignInWithPassword(context.Background(), tc.email, tc.password)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

		var authErr *domainauth.AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, "Invalid login credentials", authErr.UserMessage())
	}
}

func TestProvider_RoleClaim(t *testing.T) {
	p := newTestProvider(t, Config{})
	sess, err := p.SignInWithPassword(context.Background(), "root@college.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"role": "admin"}, sess.Claims["user_metadata"])
}

func TestProvider_LatencyHonoursContext(t *testing.T) {
	p := newTestProvider(t, Config{Latency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.SignInWithPassword(ctx, "ada@college.edu", "secret")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cur, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestProvider_ExpiredSessions(t *testing.T) {
	p := newTestProvider(t, Config{SessionDuration: time.Minute})
	sess, err := p.SignInWithPassword(context.Background(), "ada@college.edu", "secret")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Now().Add(time.Hour) }

	cur, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cur)

	resumed, err := p.Resume(context.Background(), sess.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, resumed)
}
