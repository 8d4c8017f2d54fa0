package auth

// Package auth contains simple hand-written test doubles for the session and role ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/providerevents"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.TokenStore       = (*MemoryTokenStore)(nil)
	_ ports.Navigator        = (*RecordingNavigator)(nil)
	_ ports.FacultyDirectory = (*StaticDirectory)(nil)
	_ ports.StudentDirectory = (*StaticDirectory)(nil)
	_ ports.AdminRule        = StaticAdminRule{}
)

// Account is a user known to MockIdentityProvider.
type Account struct {
	Password string
	Session  domainauth.Session
}

var _ ports.SessionRefresher = (*MockIdentityProvider)(nil)

// MockIdentityProvider simulates an identity provider with local session state and change events.
type MockIdentityProvider struct {
	// SignInFunc overrides credential checking entirely when set.
	SignInFunc func(ctx context.Context, email, password string) (domainauth.Session, error)
	// CurrentErr is returned by CurrentSession when set.
	CurrentErr error
	// ResumeErr is returned by Resume when set.
	ResumeErr error
	// RefreshErr is returned by Refresh when set.
	RefreshErr error
	// Delay is applied to every sign-in. It ignores ctx, modelling a call that cannot be cancelled.
	Delay time.Duration

	mu       sync.Mutex
	accounts map[string]Account
	delays   map[string]time.Duration
	tokens   map[string]domainauth.Session
	current  *domainauth.Session
	hub      *providerevents.Hub

	signInCalls   atomic.Int32
	signInReturns atomic.Int32
	signOutCalls  atomic.Int32
	tokenSeq      int
}

// NewMockIdentityProvider creates a provider with no accounts.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		accounts: make(map[string]Account),
		delays:   make(map[string]time.Duration),
		tokens:   make(map[string]domainauth.Session),
		hub:      providerevents.NewHub(),
	}
}

// AddAccount registers a user that may sign in with password.
func (m *MockIdentityProvider) AddAccount(email, password string, sess domainauth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess.Email == "" {
		sess.Email = email
	}
	m.accounts[domainauth.NormalizeEmail(email)] = Account{Password: password, Session: sess}
}

// SetSignInDelay delays sign-ins for email only, overriding Delay.
func (m *MockIdentityProvider) SetSignInDelay(email string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[domainauth.NormalizeEmail(email)] = d
}

func (m *MockIdentityProvider) CurrentSession(_ context.Context) (*domainauth.Session, error) {
	if m.CurrentErr != nil {
		return nil, m.CurrentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, nil
	}
	s := *m.current
	return &s, nil
}

func (m *MockIdentityProvider) Resume(_ context.Context, accessToken string) (*domainauth.Session, error) {
	if m.ResumeErr != nil {
		return nil, m.ResumeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.tokens[accessToken]
	if !ok {
		return nil, nil
	}
	m.current = &sess
	return &sess, nil
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error) {
	m.signInCalls.Add(1)
	defer m.signInReturns.Add(1)

	delay := m.Delay
	m.mu.Lock()
	if d, ok := m.delays[domainauth.NormalizeEmail(email)]; ok {
		delay = d
	}
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}

	m.mu.Lock()
	acct, ok := m.accounts[domainauth.NormalizeEmail(email)]
	if !ok || acct.Password != password {
		m.mu.Unlock()
		return domainauth.Session{}, domainauth.NewAuthError(domainauth.CodeInvalidCredentials, errors.New("Invalid login credentials"))
	}
	m.tokenSeq++
	sess := acct.Session
	sess.AccessToken = fmt.Sprintf("token-%s-%d", sess.SubjectID, m.tokenSeq)
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = time.Now().Add(time.Hour)
	}
	m.tokens[sess.AccessToken] = sess
	m.current = &sess
	m.mu.Unlock()

	m.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedIn, Session: &sess})
	return sess, nil
}

// Refresh issues a new access token for the current session, valid for an hour.
func (m *MockIdentityProvider) Refresh(_ context.Context) (*domainauth.Session, error) {
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil, errors.New("refresh: not signed in")
	}
	m.tokenSeq++
	sess := *m.current
	delete(m.tokens, sess.AccessToken)
	sess.AccessToken = fmt.Sprintf("token-%s-%d", sess.SubjectID, m.tokenSeq)
	sess.ExpiresAt = time.Now().Add(time.Hour)
	m.tokens[sess.AccessToken] = sess
	m.current = &sess
	m.mu.Unlock()

	m.hub.Publish(ports.SessionEvent{Kind: ports.SessionTokenRefreshed, Session: &sess})
	return &sess, nil
}

// SetCurrent replaces the provider's local session without publishing an event.
func (m *MockIdentityProvider) SetCurrent(sess *domainauth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess == nil {
		m.current = nil
		return
	}
	s := *sess
	m.current = &s
}

func (m *MockIdentityProvider) SignOut(_ context.Context) error {
	m.signOutCalls.Add(1)

	m.mu.Lock()
	wasSignedIn := m.current != nil
	if m.current != nil {
		delete(m.tokens, m.current.AccessToken)
	}
	m.current = nil
	m.mu.Unlock()

	if wasSignedIn {
		m.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedOut})
	}
	return nil
}

func (m *MockIdentityProvider) Subscribe(fn func(ports.SessionEvent)) ports.Subscription {
	return m.hub.Subscribe(fn)
}

// Emit publishes ev to subscribers, simulating a provider-initiated transition such as token expiry.
// A sign-out event also drops the provider's local session.
func (m *MockIdentityProvider) Emit(ev ports.SessionEvent) {
	m.mu.Lock()
	switch {
	case ev.Kind == ports.SessionSignedOut:
		m.current = nil
	case ev.Session != nil:
		s := *ev.Session
		m.current = &s
		if s.AccessToken != "" {
			m.tokens[s.AccessToken] = s
		}
	}
	m.mu.Unlock()
	m.hub.Publish(ev)
}

// Subscribers returns the number of active subscriptions.
func (m *MockIdentityProvider) Subscribers() int { return m.hub.Len() }

// SignInCalls returns how many sign-ins were attempted.
func (m *MockIdentityProvider) SignInCalls() int { return int(m.signInCalls.Load()) }

// SignInReturns returns how many sign-ins have finished, including late ones.
func (m *MockIdentityProvider) SignInReturns() int { return int(m.signInReturns.Load()) }

// SignOutCalls returns how many times SignOut was called.
func (m *MockIdentityProvider) SignOutCalls() int { return int(m.signOutCalls.Load()) }

// MemoryTokenStore is an in-memory token store for unit tests.
type MemoryTokenStore struct {
	SaveErr   error
	LoadErr   error
	DeleteErr error

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	saves     int
	deletes   int
}

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (s *MemoryTokenStore) Save(_ context.Context, token string, expiresAt time.Time) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	s.saves++
	return nil
}

func (s *MemoryTokenStore) Load(_ context.Context) (string, error) {
	if s.LoadErr != nil {
		return "", s.LoadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.deletes++
	return nil
}

// Token returns the stored token.
func (s *MemoryTokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Deletes returns how many times Delete succeeded.
func (s *MemoryTokenStore) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// RecordingNavigator records navigation targets.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns a copy of every recorded target.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent target or "".
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

// StaticDirectory serves faculty and student lookups from maps and counts probes.
type StaticDirectory struct {
	Faculty  map[string]domainauth.FacultyRecord // keyed by subject id
	Students map[string]domainauth.StudentRecord // keyed by normalised email

	// FacultyErr and StudentErr are returned by the matching lookup when set.
	FacultyErr error
	StudentErr error

	facultyProbes atomic.Int32
	studentProbes atomic.Int32
}

// NewStaticDirectory creates an empty directory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		Faculty:  make(map[string]domainauth.FacultyRecord),
		Students: make(map[string]domainauth.StudentRecord),
	}
}

func (d *StaticDirectory) FindBySubject(_ context.Context, subjectID string) (*domainauth.FacultyRecord, error) {
	d.facultyProbes.Add(1)
	if d.FacultyErr != nil {
		return nil, d.FacultyErr
	}
	rec, ok := d.Faculty[subjectID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (d *StaticDirectory) FindByEmail(_ context.Context, email string) (*domainauth.StudentRecord, error) {
	d.studentProbes.Add(1)
	if d.StudentErr != nil {
		return nil, d.StudentErr
	}
	rec, ok := d.Students[domainauth.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Probes returns the faculty and student lookup counts.
func (d *StaticDirectory) Probes() (faculty, student int) {
	return int(d.facultyProbes.Load()), int(d.studentProbes.Load())
}

// StaticAdminRule matches a fixed set of emails.
type StaticAdminRule struct {
	Emails []string
}

func (r StaticAdminRule) Match(sess domainauth.Session) (domainauth.AdminRecord, bool) {
	for _, e := range r.Emails {
		if domainauth.NormalizeEmail(e) == domainauth.NormalizeEmail(sess.Email) {
			return domainauth.AdminRecord{Source: "static"}, true
		}
	}
	return domainauth.AdminRecord{}, false
}
