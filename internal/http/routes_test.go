package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	authmocks "github.com/PoojaS1511/Updated-CMS-sub000/internal/mocks/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

type portalFixture struct {
	provider  *authmocks.MockIdentityProvider
	directory *authmocks.StaticDirectory
	guard     *service.AuthGuard
	handler   http.Handler
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	f := &portalFixture{
		provider:  authmocks.NewMockIdentityProvider(),
		directory: authmocks.NewStaticDirectory(),
	}
	f.provider.AddAccount("principal@college.edu", "pw", domainauth.Session{SubjectID: "adm-1"})
	f.provider.AddAccount("ada@college.edu", "pw", domainauth.Session{SubjectID: "fac-1"})
	f.provider.AddAccount("sam@college.edu", "pw", domainauth.Session{SubjectID: "stu-1"})
	f.provider.AddAccount("guest@college.edu", "pw", domainauth.Session{SubjectID: "gst-1"})
	f.directory.Faculty["fac-1"] = domainauth.FacultyRecord{
		ID: "f-1", SubjectID: "fac-1", Email: "ada@college.edu", Name: "Ada Lovelace", Department: "CSE",
	}
	f.directory.Students["sam@college.edu"] = domainauth.StudentRecord{
		ID: "s-1", Email: "sam@college.edu", Name: "Sam Student", RollNumber: "21CS001", Year: 2,
	}

	resolver := service.NewRoleResolver(service.RoleResolverOptions{
		AdminRule: authmocks.StaticAdminRule{Emails: []string{"principal@college.edu"}},
		Faculty:   f.directory,
		Students:  f.directory,
	})
	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Provider:     f.provider,
		Tokens:       authmocks.NewMemoryTokenStore(),
		Resolver:     resolver,
		LoginTimeout: time.Second,
	})
	f.guard = service.NewAuthGuard(service.AuthGuardOptions{Sessions: sessions, Navigator: RequestNavigator{}})
	t.Cleanup(f.guard.Close)

	require.NoError(t, f.guard.Start(t.Context()))
	require.Eventually(t, func() bool {
		return f.guard.Snapshot().State == service.StateUnauthenticated
	}, 2*time.Second, 5*time.Millisecond)

	h, err := NewRouter(RouterServices{Guard: f.guard})
	require.NoError(t, err)
	f.handler = h
	return f
}

func (f *portalFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// client replays the cookies the portal sets, the way a browser would.
type client struct {
	f       *portalFixture
	cookies map[string]*http.Cookie
}

func (f *portalFixture) newClient() *client {
	return &client{f: f, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := c.f.do(req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

// csrf returns the client's CSRF token, fetching one if it has none yet.
func (c *client) csrf(t *testing.T) string {
	t.Helper()
	if _, ok := c.cookies[DefaultCSRFCookieName]; !ok {
		c.do(browserGet("/healthz"))
	}
	ck, ok := c.cookies[DefaultCSRFCookieName]
	require.True(t, ok, "no CSRF cookie issued")
	return ck.Value
}

func (c *client) login(t *testing.T, email string) {
	t.Helper()
	rec := c.do(jsonLogin(email, "pw"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, c.cookies, sessionCookieName)
}

func browserGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	return req
}

func apiGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func jsonLogin(email, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// csrfToken returns the CSRF cookie issued to a fresh client.
func (f *portalFixture) csrfToken(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.do(browserGet("/healthz"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			return c
		}
	}
	t.Fatal("no CSRF cookie issued")
	return nil
}

func formPost(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func jsonPost(path string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_SignedOutDashboardsRedirectToLogin(t *testing.T) {
	f := newPortalFixture(t)

	for _, path := range []string{
		domainauth.AdminDashboardPath, domainauth.FacultyDashboardPath, domainauth.StudentDashboardPath, "/",
	} {
		rec := f.do(browserGet(path))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"), path)
	}

	rec := f.do(apiGet(domainauth.StudentDashboardPath))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
}

func TestRouter_StudentLoginAndNavigation(t *testing.T) {
	f := newPortalFixture(t)
	c := f.newClient()

	rec := c.do(jsonLogin("Sam@College.edu", "pw"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, domainauth.StudentDashboardPath, body["redirect_to"])
	assert.Equal(t, "student", body["identity"].(map[string]any)["role"])

	session := c.cookies[sessionCookieName]
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.NotEmpty(t, session.Value)

	rec = c.do(browserGet(domainauth.StudentDashboardPath))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sam Student")
	assert.Contains(t, rec.Body.String(), "21CS001")

	// A student asking for the admin dashboard is sent home.
	rec = c.do(browserGet(domainauth.AdminDashboardPath))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domainauth.StudentDashboardPath, rec.Header().Get("Location"))

	// The cached decision still redirects.
	rec = c.do(browserGet(domainauth.AdminDashboardPath))
	assert.Equal(t, domainauth.StudentDashboardPath, rec.Header().Get("Location"))

	rec = c.do(apiGet(domainauth.FacultyDashboardPath))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_permissions", decodeBody(t, rec)["error"])

	rec = c.do(browserGet("/"))
	assert.Equal(t, domainauth.StudentDashboardPath, rec.Header().Get("Location"))

	rec = c.do(browserGet(domainauth.LoginPath))
	assert.Equal(t, http.StatusSeeOther, rec.Code, "signed-in users skip the login form")
}

func TestRouter_SessionIsBoundToTheSigningInClient(t *testing.T) {
	f := newPortalFixture(t)
	sam := f.newClient()
	other := f.newClient()
	sam.login(t, "sam@college.edu")

	rec := other.do(browserGet(domainauth.StudentDashboardPath))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "Sam Student")

	rec = other.do(apiGet(domainauth.StudentDashboardPath))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])

	body := decodeBody(t, other.do(apiGet("/api/identity")))
	assert.Equal(t, "unauthenticated", body["state"])
	assert.Equal(t, false, body["is_authenticated"])
	assert.NotContains(t, body, "identity")

	rec = other.do(browserGet("/"))
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
	rec = other.do(browserGet(domainauth.LoginPath))
	assert.Equal(t, http.StatusOK, rec.Code, "the login form is shown to other clients")

	// A forged cookie is no better than none.
	forged := browserGet(domainauth.StudentDashboardPath)
	forged.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "forged"})
	assert.Equal(t, domainauth.LoginPath, f.do(forged).Header().Get("Location"))

	// Another client can neither sign the holder out nor retry on its behalf.
	rec = other.do(formPost("/logout", url.Values{DefaultCSRFCookieName: {other.csrf(t)}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, service.StateAuthenticated, f.guard.Snapshot().State)
	rec = other.do(jsonPost("/auth/retry"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = sam.do(browserGet(domainauth.StudentDashboardPath))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sam Student")
	body = decodeBody(t, sam.do(apiGet("/api/identity")))
	assert.Equal(t, "stu-1", body["identity"].(map[string]any)["subject_id"])
}

func TestRouter_LatestLoginTakesTheSession(t *testing.T) {
	f := newPortalFixture(t)
	sam := f.newClient()
	ada := f.newClient()
	sam.login(t, "sam@college.edu")
	ada.login(t, "ada@college.edu")

	rec := sam.do(browserGet(domainauth.StudentDashboardPath))
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
	body := decodeBody(t, sam.do(apiGet("/api/identity")))
	assert.Equal(t, "unauthenticated", body["state"])

	rec = ada.do(browserGet(domainauth.FacultyDashboardPath))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
}

func TestRouter_AdminReachesEveryDashboard(t *testing.T) {
	f := newPortalFixture(t)
	c := f.newClient()
	c.login(t, "principal@college.edu")

	for _, path := range []string{
		domainauth.AdminDashboardPath, domainauth.FacultyDashboardPath, domainauth.StudentDashboardPath,
	} {
		assert.Equal(t, http.StatusOK, c.do(browserGet(path)).Code, path)
	}
}

func TestRouter_FormLoginRequiresCSRF(t *testing.T) {
	f := newPortalFixture(t)
	c := f.newClient()
	creds := url.Values{"email": {"ada@college.edu"}, "password": {"pw"}}

	rec := c.do(formPost("/login", creds))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.StateUnauthenticated, f.guard.Snapshot().State)

	withToken := url.Values{"email": creds["email"], "password": creds["password"], DefaultCSRFCookieName: {c.csrf(t)}}
	rec = c.do(formPost("/login", withToken))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domainauth.FacultyDashboardPath, rec.Header().Get("Location"))
	assert.Contains(t, c.cookies, sessionCookieName)

	rec = c.do(browserGet(domainauth.FacultyDashboardPath))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
}

func TestRouter_LoginFailures(t *testing.T) {
	f := newPortalFixture(t)

	rec := f.do(jsonLogin("ada@college.edu", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_credentials", body["error"])
	assert.Equal(t, "Invalid login credentials", body["message"])

	rec = f.do(jsonLogin("guest@college.edu", "pw"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "no_role", decodeBody(t, rec)["error"])

	rec = f.do(jsonLogin("", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	csrf := f.csrfToken(t)
	rec = f.do(formPost("/login", url.Values{
		"email": {"ada@college.edu"}, "password": {"wrong"}, DefaultCSRFCookieName: {csrf.Value},
	}, csrf))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login credentials")
	assert.Contains(t, rec.Body.String(), `value="ada@college.edu"`, "email is kept in the form")
}

func TestRouter_StoreOutageAtLogin(t *testing.T) {
	f := newPortalFixture(t)
	f.directory.FacultyErr = &domainauth.ResolutionError{Store: "faculty", Cause: domainauth.ErrStoreUnavailable}

	rec := f.do(jsonLogin("ada@college.edu", "pw"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "faculty", "store detail stays out of the response")
}

func TestRouter_LogoutSetsFlashAndSignsOut(t *testing.T) {
	f := newPortalFixture(t)
	c := f.newClient()
	c.login(t, "sam@college.edu")

	rec := c.do(formPost("/logout", url.Values{DefaultCSRFCookieName: {c.csrf(t)}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
	assert.Equal(t, service.StateUnauthenticated, f.guard.Snapshot().State)
	assert.NotContains(t, c.cookies, sessionCookieName, "the session cookie is expired")
	require.Contains(t, c.cookies, flashCookieName)

	rec = c.do(browserGet(domainauth.LoginPath))
	assert.Contains(t, rec.Body.String(), "You have been signed out.")

	rec = c.do(browserGet(domainauth.StudentDashboardPath))
	assert.Equal(t, domainauth.LoginPath, rec.Header().Get("Location"))
}

func TestRouter_IdentitySnapshot(t *testing.T) {
	f := newPortalFixture(t)
	c := f.newClient()

	body := decodeBody(t, c.do(apiGet("/api/identity")))
	assert.Equal(t, "unauthenticated", body["state"])
	assert.NotContains(t, body, "identity")

	c.login(t, "ada@college.edu")
	body = decodeBody(t, c.do(apiGet("/api/identity")))
	assert.Equal(t, "authenticated", body["state"])
	assert.Equal(t, true, body["is_authenticated"])
	assert.Equal(t, "faculty", body["identity"].(map[string]any)["role"])
}

func TestRouter_Health(t *testing.T) {
	f := newPortalFixture(t)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodHead, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
