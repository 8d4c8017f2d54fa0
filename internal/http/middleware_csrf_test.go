package httpx

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfHandler() http.Handler {
	return CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	}))
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFProtection_GetIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	c := findCookie(rec.Result(), DefaultCSRFCookieName)
	if c == nil || c.Value == "" {
		t.Fatal("CSRF cookie not set")
	}
	if rec.Body.String() != c.Value {
		t.Errorf("context token %q does not match cookie %q", rec.Body.String(), c.Value)
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("unexpected cookie attributes: %+v", c)
	}
	if c.Secure {
		t.Error("cookie should not be Secure over plain HTTP")
	}
}

func TestCSRFProtection_ExistingTokenNotReissued(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	if findCookie(rec.Result(), DefaultCSRFCookieName) != nil {
		t.Error("cookie should not be re-issued when present")
	}
	if rec.Body.String() != "existing" {
		t.Errorf("expected existing token in context, got %q", rec.Body.String())
	}
}

func TestCSRFProtection_FormPosts(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		form   string
		header string
		want   int
	}{
		{name: "missing token", cookie: "", want: http.StatusForbidden},
		{name: "valid form token", cookie: "tok", form: "tok", want: http.StatusOK},
		{name: "valid header token", cookie: "tok", header: "tok", want: http.StatusOK},
		{name: "mismatched token", cookie: "tok", form: "other", want: http.StatusForbidden},
		{name: "header wins over form", cookie: "tok", header: "bad", form: "tok", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"email": {"a@b.edu"}}
			if tt.form != "" {
				form.Set(DefaultCSRFCookieName, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(DefaultCSRFHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			csrfHandler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCSRFProtection_JSONExempt(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected JSON post to pass, got %d", rec.Code)
	}
}

func TestCSRFProtection_SecureCookie(t *testing.T) {
	for name, mutate := range map[string]func(*http.Request){
		"tls":       func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
		"forwarded": func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http, HTTPS") },
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mutate(req)
			rec := httptest.NewRecorder()
			CSRFProtection(CSRFConfig{CookieDomain: "portal.example.edu"})(http.NotFoundHandler()).ServeHTTP(rec, req)
			c := findCookie(rec.Result(), DefaultCSRFCookieName)
			if c == nil || !c.Secure {
				t.Fatalf("expected Secure cookie, got %+v", c)
			}
			if c.Domain != "portal.example.edu" {
				t.Errorf("expected cookie domain, got %q", c.Domain)
			}
		})
	}
}
