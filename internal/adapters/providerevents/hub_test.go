package providerevents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

func TestHub_PublishInOrder(t *testing.T) {
	hub := NewHub()
	var got []string

	hub.Subscribe(func(ev ports.SessionEvent) { got = append(got, "a:"+string(ev.Kind)) })
	hub.Subscribe(func(ev ports.SessionEvent) { got = append(got, "b:"+string(ev.Kind)) })

	hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedIn, Session: &domainauth.Session{SubjectID: "u1"}})

	assert.Equal(t, []string{"a:SIGNED_IN", "b:SIGNED_IN"}, got)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	calls := 0
	sub := hub.Subscribe(func(ports.SessionEvent) { calls++ })
	other := hub.Subscribe(func(ports.SessionEvent) {})

	sub.Unsubscribe()
	sub.Unsubscribe()
	hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedOut})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, hub.Len())

	other.Unsubscribe()
	assert.Equal(t, 0, hub.Len())
}

func TestHub_HandlerMayUnsubscribeDuringPublish(t *testing.T) {
	hub := NewHub()
	var sub ports.Subscription
	calls := 0
	sub = hub.Subscribe(func(ports.SessionEvent) {
		calls++
		sub.Unsubscribe()
	})

	hub.Publish(ports.SessionEvent{Kind: ports.SessionInitial})
	hub.Publish(ports.SessionEvent{Kind: ports.SessionInitial})

	assert.Equal(t, 1, calls)
}
