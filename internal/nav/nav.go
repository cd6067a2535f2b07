// Package nav names the logical pages of the client and the navigator views use
// to move between them.
package nav

import (
	"fmt"
	"sync"
)

// Route is a logical page location.
type Route string

const (
	Home    Route = "/"
	Login   Route = "/login"
	Signup  Route = "/signup"
	Albums  Route = "/albums"
	Artists Route = "/artists"
)

// Album returns the detail route for an album.
func Album(id int64) Route { return Route(fmt.Sprintf("/albums/%d", id)) }

// AlbumReview returns the review-submission route for an album.
func AlbumReview(id int64) Route { return Route(fmt.Sprintf("/albums/%d/review", id)) }

// Artist returns the detail route for an artist.
func Artist(id int64) Route { return Route(fmt.Sprintf("/artists/%d", id)) }

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route Route) { f(route) }

// History records navigations in order. The zero value is ready to use.
type History struct {
	mu     sync.Mutex
	routes []Route
}

// Navigate appends route to the history.
func (h *History) Navigate(route Route) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
}

// Current returns the most recent route, or Home when nothing was visited.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return Home
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns a copy of every recorded navigation.
func (h *History) Routes() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Route, len(h.routes))
	copy(out, h.routes)
	return out
}

// Visited reports whether route was navigated to at least once.
func (h *History) Visited(route Route) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.routes {
		if r == route {
			return true
		}
	}
	return false
}
