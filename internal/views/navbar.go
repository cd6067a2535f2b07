package views

import (
	"context"
	"sync"

	"albumreviews/internal/nav"
	"albumreviews/internal/session"
)

// Link is one navbar entry.
type Link struct {
	Label string
	Route nav.Route
}

// Navbar follows the session and offers Sign Out or Login/Signup.
type Navbar struct {
	deps        Deps
	unsubscribe func()

	mu      sync.Mutex
	current session.Session
}

// NewNavbar subscribes to session changes until Close.
func NewNavbar(deps Deps) *Navbar {
	n := &Navbar{deps: deps, current: deps.Sessions.Get()}
	n.unsubscribe = deps.Sessions.Subscribe(func(s session.Session) {
		n.mu.Lock()
		n.current = s
		n.mu.Unlock()
	})
	return n
}

func (n *Navbar) Close() {
	n.unsubscribe()
}

func (n *Navbar) Authenticated() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current.Authenticated()
}

// Username returns the signed-in username, empty when anonymous.
func (n *Navbar) Username() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current.User == nil {
		return ""
	}
	return n.current.User.Username
}

// Links lists the entries for the current session.
func (n *Navbar) Links() []Link {
	links := []Link{
		{Label: "Home", Route: nav.Home},
		{Label: "Albums", Route: nav.Albums},
		{Label: "Artists", Route: nav.Artists},
	}
	if n.Authenticated() {
		return append(links, Link{Label: "Sign Out"})
	}
	return append(links,
		Link{Label: "Login", Route: nav.Login},
		Link{Label: "Signup", Route: nav.Signup},
	)
}

// SignOut tells the backend, then clears the local session and cookies
// regardless of whether the backend answered, and goes home.
func (n *Navbar) SignOut(ctx context.Context) error {
	if n.deps.Sessions.IsAuthenticated() {
		if err := n.deps.Auth.Logout(ctx); err != nil {
			n.deps.Log.Warn().Err(err).Msg("backend logout failed")
		}
	}
	err := n.deps.Sessions.Clear(ctx)
	n.deps.navigate(nav.Home)
	return err
}
