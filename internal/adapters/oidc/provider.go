package oidc

// Package oidc adapts an OpenID Connect provider to ports.IdentityProvider using the
// resource-owner password grant.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/providerevents"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.SessionRefresher = (*Provider)(nil)
)

// Provider implements ports.IdentityProvider against an OIDC issuer.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *slog.Logger
	hub        *providerevents.Hub
	now        func() time.Time

	// go-oidc provider and verifier
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	mu      sync.Mutex
	current *domainauth.Session
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
	Logger       *slog.Logger
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider. It fetches the discovery document once.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		httpClient: httpClient,
		logger:     logger.With("component", "oidc"),
		hub:        providerevents.NewHub(),
		now:        time.Now,
	}

	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(p.clientContext(ctx), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	scopes := strings.Fields(config.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "email", "profile"}
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       scopes,
		Endpoint:     op.Endpoint(),
	}
	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// CurrentSession returns the session established by the last sign-in or resume.
func (p *Provider) CurrentSession(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.Expired(p.now()) {
		return nil, nil
	}
	s := *p.current
	return &s, nil
}

// Resume rebuilds a session by presenting accessToken to the UserInfo endpoint.
// A token the issuer rejects yields nil, nil; network failures are returned.
func (p *Provider) Resume(ctx context.Context, accessToken string) (*domainauth.Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	sess, err := p.sessionFromToken(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	if err != nil {
		if isTransport(err) {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		p.logger.InfoContext(ctx, "persisted token rejected", "error", err)
		return nil, nil
	}
	p.setCurrent(&sess)
	return &sess, nil
}

// SignInWithPassword exchanges email and password for tokens and builds the session
// from the issuer's claims.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error) {
	tok, err := p.config.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return domainauth.Session{}, classifyTokenError(err)
	}
	sess, err := p.sessionFromToken(ctx, tok)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load user info: %w", err)
	}

	p.setCurrent(&sess)
	published := sess
	p.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedIn, Session: &published})
	return sess, nil
}

// Refresh trades the current refresh token for new tokens.
func (p *Provider) Refresh(ctx context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur == nil || cur.RefreshToken == "" {
		return nil, errors.New("oidc refresh: no refresh token")
	}

	// An expired token forces the token source to use the refresh token.
	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{
		RefreshToken: cur.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		if classified := classifyTokenError(err); errors.Is(classified, domainauth.ErrInvalidCredentials) {
			// The refresh token was revoked; the session is over.
			_ = p.SignOut(ctx)
		}
		return nil, fmt.Errorf("oidc refresh: %w", err)
	}
	sess, err := p.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("oidc refresh: %w", err)
	}
	if sess.RefreshToken == "" {
		sess.RefreshToken = cur.RefreshToken
	}

	p.setCurrent(&sess)
	published := sess
	p.hub.Publish(ports.SessionEvent{Kind: ports.SessionTokenRefreshed, Session: &published})
	return &sess, nil
}

// SignOut forgets the local session. Tokens are not revoked at the issuer.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	was := p.current != nil
	p.current = nil
	p.mu.Unlock()
	if was {
		p.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedOut})
	}
	return nil
}

// Subscribe registers fn for session transitions.
func (p *Provider) Subscribe(fn func(ports.SessionEvent)) ports.Subscription {
	return p.hub.Subscribe(fn)
}

func (p *Provider) setCurrent(sess *domainauth.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := *sess
	p.current = &s
}

// sessionFromToken merges verified id_token claims (when present) with UserInfo claims.
func (p *Provider) sessionFromToken(ctx context.Context, tok *oauth2.Token) (domainauth.Session, error) {
	claims := map[string]any{}
	var subject, email string

	if rawID, ok := tok.Extra("id_token").(string); ok && rawID != "" {
		idTok, err := p.verifier.Verify(p.clientContext(ctx), rawID)
		if err != nil {
			return domainauth.Session{}, fmt.Errorf("verify id_token: %w", err)
		}
		if err := idTok.Claims(&claims); err != nil {
			return domainauth.Session{}, fmt.Errorf("parse id_token claims: %w", err)
		}
		subject = idTok.Subject
	}

	ui, err := p.oidcProvider.UserInfo(p.clientContext(ctx), oauth2.StaticTokenSource(tok))
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("fetch user info: %w", err)
	}
	var uiClaims map[string]any
	if err := ui.Claims(&uiClaims); err != nil {
		return domainauth.Session{}, fmt.Errorf("decode user info: %w", err)
	}
	for k, v := range uiClaims {
		claims[k] = v
	}
	if subject == "" {
		subject = ui.Subject
	} else if ui.Subject != "" && ui.Subject != subject {
		return domainauth.Session{}, errors.New("user info subject does not match id_token")
	}
	email = ui.Email
	if email == "" {
		email, _ = claims["email"].(string)
	}

	return domainauth.Session{
		SubjectID:    subject,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Claims:       claims,
	}, nil
}

// classifyTokenError turns an invalid_grant answer into invalid credentials and
// leaves everything else for the caller to classify.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		msg := re.ErrorDescription
		if msg == "" {
			msg = "Invalid login credentials"
		}
		return domainauth.NewAuthError(domainauth.CodeInvalidCredentials, errors.New(msg))
	}
	return fmt.Errorf("password grant: %w", err)
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
