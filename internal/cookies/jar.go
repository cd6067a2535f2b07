// Package cookies is the client's cookie storage. It backs the HTTP client,
// supplies the CSRF cookie and is wiped on sign-out.
package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// StorageKey is where Save and Load keep cookies.
const StorageKey = "cookies"

// Storage persists string values by key.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Jar is an http.CookieJar that remembers which origins it holds cookies for,
// so they can be listed, persisted and expired together.
type Jar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	origins map[string]*url.URL
}

var _ http.CookieJar = (*Jar)(nil)

// New returns an empty jar scoped by the public suffix list.
func New() *Jar {
	return &Jar{
		jar:     newCookieJar(),
		origins: make(map[string]*url.URL),
	}
}

func newCookieJar() *cookiejar.Jar {
	// cookiejar.New always returns a nil error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar.SetCookies(u, cookies)
	origin := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	j.origins[origin.String()] = origin
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Value returns the value of the named cookie sent to u.
func (j *Jar) Value(u *url.URL, name string) (string, bool) {
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// ExpireAll drops every cookie the jar holds.
func (j *Jar) ExpireAll() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = newCookieJar()
	j.origins = make(map[string]*url.URL)
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Save writes the current cookies to storage, grouped by origin.
func (j *Jar) Save(ctx context.Context, storage Storage) error {
	j.mu.Lock()
	saved := make(map[string][]savedCookie, len(j.origins))
	for key, origin := range j.origins {
		for _, c := range j.jar.Cookies(origin) {
			saved[key] = append(saved[key], savedCookie{Name: c.Name, Value: c.Value})
		}
	}
	j.mu.Unlock()

	for key := range saved {
		sort.Slice(saved[key], func(a, b int) bool { return saved[key][a].Name < saved[key][b].Name })
	}

	payload, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := storage.Set(ctx, StorageKey, string(payload)); err != nil {
		return fmt.Errorf("persist cookies: %w", err)
	}
	return nil
}

// Load restores cookies written by Save. Missing data leaves the jar untouched.
func (j *Jar) Load(ctx context.Context, storage Storage) error {
	raw, ok, err := storage.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var saved map[string][]savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return fmt.Errorf("decode cookies: %w", err)
	}

	for origin, list := range saved {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		cookies := make([]*http.Cookie, 0, len(list))
		for _, c := range list {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		j.SetCookies(u, cookies)
	}
	return nil
}
