package nav

import (
	"sync"
	"testing"
)

func TestRoutes(t *testing.T) {
	tests := map[Route]Route{
		Album(7):       "/albums/7",
		AlbumReview(7): "/albums/7/review",
		Artist(3):      "/artists/3",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestHistory(t *testing.T) {
	var h History
	if h.Current() != Home {
		t.Fatalf("expected empty history to report Home, got %q", h.Current())
	}

	h.Navigate(Albums)
	h.Navigate(Album(1))
	if h.Current() != Album(1) {
		t.Fatalf("unexpected current route %q", h.Current())
	}
	if !h.Visited(Albums) || h.Visited(Login) {
		t.Fatalf("unexpected visited state: %v", h.Routes())
	}

	routes := h.Routes()
	routes[0] = Signup
	if h.Routes()[0] != Albums {
		t.Fatal("Routes should return a copy")
	}
}

func TestHistoryConcurrentNavigate(t *testing.T) {
	var h History
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Navigate(Login)
		}()
	}
	wg.Wait()
	if n := len(h.Routes()); n != 50 {
		t.Fatalf("expected 50 routes, got %d", n)
	}
}

func TestNavigatorFunc(t *testing.T) {
	var got Route
	var n Navigator = NavigatorFunc(func(r Route) { got = r })
	n.Navigate(Artists)
	if got != Artists {
		t.Fatalf("expected %q, got %q", Artists, got)
	}
}
