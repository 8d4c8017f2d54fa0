package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

func TestSessionBinding_HoldsOnlyTheIssuedCookie(t *testing.T) {
	sam := domainauth.Identity{SubjectID: "stu-1", Email: "sam@college.edu", Role: domainauth.RoleStudent}
	ada := domainauth.Identity{SubjectID: "fac-1", Email: "ada@college.edu", Role: domainauth.RoleFaculty}
	authed := func(id domainauth.Identity) service.IdentitySnapshot {
		return service.IdentitySnapshot{State: service.StateAuthenticated, IsAuthenticated: true, Identity: &id}
	}

	b := &SessionBinding{CookieDomain: "portal.college.edu"}
	assert.True(t, b.Vacant())

	rec := httptest.NewRecorder()
	require.NoError(t, b.Bind(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sam))
	assert.False(t, b.Vacant())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	issued := cookies[0]
	assert.Equal(t, sessionCookieName, issued.Name)
	assert.True(t, issued.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, issued.SameSite)
	assert.Equal(t, "portal.college.edu", issued.Domain)

	holder := httptest.NewRequest(http.MethodGet, "/", nil)
	holder.AddCookie(issued)
	stranger := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.True(t, b.Holds(holder, authed(sam)))
	assert.True(t, b.Holds(holder, service.IdentitySnapshot{State: service.StateInitializing}))
	assert.False(t, b.Holds(holder, authed(ada)), "the guard moved to another subject")
	assert.False(t, b.Holds(stranger, authed(sam)))

	view := b.View(stranger, authed(sam))
	assert.Equal(t, service.StateUnauthenticated, view.State)
	assert.Nil(t, view.Identity)
	assert.Equal(t, "stu-1", b.View(holder, authed(sam)).Identity.SubjectID)

	// Rebinding replaces the earlier holder.
	require.NoError(t, b.Bind(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), sam))
	assert.False(t, b.Holds(holder, authed(sam)))
}

func TestSessionBinding_Release(t *testing.T) {
	sam := domainauth.Identity{SubjectID: "stu-1", Email: "sam@college.edu"}
	b := &SessionBinding{}
	rec := httptest.NewRecorder()
	require.NoError(t, b.Bind(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sam))
	issued := rec.Result().Cookies()[0]

	stranger := httptest.NewRequest(http.MethodPost, "/logout", nil)
	stranger.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "other"})
	b.Release(httptest.NewRecorder(), stranger)
	assert.False(t, b.Vacant(), "a foreign cookie cannot release the session")

	holder := httptest.NewRequest(http.MethodPost, "/logout", nil)
	holder.AddCookie(issued)
	rec = httptest.NewRecorder()
	b.Release(rec, holder)
	assert.True(t, b.Vacant())
	expired := rec.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Negative(t, expired[0].MaxAge)
}

func TestSessionBinding_NilBindsNobody(t *testing.T) {
	var b *SessionBinding
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "anything"})
	assert.False(t, b.Holds(req, service.IdentitySnapshot{}))
	assert.True(t, b.Vacant())
	assert.NotPanics(t, func() { b.Release(httptest.NewRecorder(), req) })
}
