// Package csrf provides the anti-forgery token used by form submissions.
//
// The client side reads the token through a TokenProvider so the submitter
// does not depend on where the token is stored. The server side issues the
// token as a cookie and verifies that unsafe requests echo it in a header.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	// CookieName is the cookie that carries the token.
	CookieName = "csrftoken"

	// HeaderName is the request header that must echo the token.
	HeaderName = "X-CSRFToken"

	// tokenBytes is the amount of randomness in a token.
	tokenBytes = 32
)

// TokenProvider returns the current anti-forgery token.
// The boolean is false when no token is available.
type TokenProvider interface {
	Token() (string, bool)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func() (string, bool)

// Token calls f.
func (f TokenFunc) Token() (string, bool) {
	return f()
}

// Static is a TokenProvider with a fixed token. The empty string means no
// token.
type Static string

// Token returns the static token.
func (s Static) Token() (string, bool) {
	return string(s), s != ""
}

// CookieString reads the token from a browser-style cookie string such as
// "a=1; csrftoken=abc; b=2".
type CookieString struct {
	// Name is the cookie name; empty means CookieName.
	Name string

	// mu guards cookies, which may be replaced while submissions read it.
	mu      sync.RWMutex
	cookies string
}

// NewCookieString creates a CookieString provider over cookies.
func NewCookieString(cookies string) *CookieString {
	return &CookieString{cookies: cookies}
}

// SetCookies replaces the cookie string.
func (c *CookieString) SetCookies(cookies string) {
	c.mu.Lock()
	c.cookies = cookies
	c.mu.Unlock()
}

// Token looks the cookie up by exact name.
func (c *CookieString) Token() (string, bool) {
	name := c.Name
	if name == "" {
		name = CookieName
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return LookupCookie(c.cookies, name)
}

// LookupCookie returns the value of the cookie called name in a cookie
// string. The string is prefixed with "; " and split on "; name=", so only
// an exact name matches: "xcsrftoken=1" never satisfies "csrftoken". When the
// name is missing, or appears more than once, the cookie is absent.
func LookupCookie(cookies, name string) (string, bool) {
	parts := strings.Split("; "+cookies, "; "+name+"=")
	if len(parts) != 2 {
		return "", false
	}
	value, _, _ := strings.Cut(parts[1], ";")
	return value, true
}

// Jar reads the token from the cookies an http.CookieJar holds for a URL.
// It lets a client reuse the cookie set when it fetched the form page.
type Jar struct {
	Jar http.CookieJar
	URL *url.URL

	// Name is the cookie name; empty means CookieName.
	Name string
}

// Token returns the jar's cookie with an exactly matching name.
func (j *Jar) Token() (string, bool) {
	if j.Jar == nil || j.URL == nil {
		return "", false
	}
	name := j.Name
	if name == "" {
		name = CookieName
	}
	for _, c := range j.Jar.Cookies(j.URL) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// NewToken returns a fresh random token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EnsureCookie returns the request's token cookie, issuing a new one on w
// when the request has none.
func EnsureCookie(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		// Scripts running in the page read the token, so no HttpOnly.
		HttpOnly: false,
	})
	return token, nil
}

// Valid reports whether r carries a token header equal to its token cookie.
func Valid(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	header := r.Header.Get(HeaderName)
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(c.Value)) == 1
}

// Verify is middleware that rejects unsafe requests without a valid token
// with 403 Forbidden.
func Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}
		if !Valid(r) {
			http.Error(w, "CSRF verification failed.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
