package httpx

import (
	"context"
	"sync"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

var _ ports.Navigator = RequestNavigator{}

// RequestNavigator is the guard's Navigator for the HTTP host. A navigation is
// recorded in the slot of the request whose context it was issued with; the handler
// then answers with a redirect. Navigations outside a request are dropped.
type RequestNavigator struct{}

// Navigate records path in ctx's navigation slot, if any. The last call wins.
func (RequestNavigator) Navigate(ctx context.Context, path string) {
	if slot, ok := ctx.Value(navigationKey{}).(*NavigationSlot); ok {
		slot.set(path)
	}
}

type navigationKey struct{}

// NavigationSlot holds the navigation target requested while serving one request.
type NavigationSlot struct {
	mu     sync.Mutex
	target string
}

// WithNavigation returns a child context with a fresh navigation slot.
func WithNavigation(ctx context.Context) (context.Context, *NavigationSlot) {
	slot := &NavigationSlot{}
	return context.WithValue(ctx, navigationKey{}, slot), slot
}

func (s *NavigationSlot) set(path string) {
	s.mu.Lock()
	s.target = path
	s.mu.Unlock()
}

// Target returns the recorded path, or "" when nothing navigated.
func (s *NavigationSlot) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}
