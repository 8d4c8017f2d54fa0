package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

func TestIdentityCache_SetGetClear(t *testing.T) {
	c := NewIdentityCache()
	key := domainauth.IdentityKey{SubjectID: "u-1", Email: "a@b.c"}
	id := domainauth.Identity{SubjectID: "u-1", Email: "a@b.c", Role: domainauth.RoleStudent}

	_, ok := c.Get(key)
	assert.False(t, ok)

	assert.True(t, c.set(key, id, c.Generation()))
	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestIdentityCache_StaleGenerationRejected(t *testing.T) {
	c := NewIdentityCache()
	gen := c.Generation()
	c.Clear()

	key := domainauth.IdentityKey{SubjectID: "u-1"}
	assert.False(t, c.set(key, domainauth.Identity{SubjectID: "u-1"}, gen))
	assert.Equal(t, 0, c.Len())
}

func TestIdentityCache_KeysDoNotCollide(t *testing.T) {
	c := NewIdentityCache()
	gen := c.Generation()
	// These two pairs would collide if joined with ":".
	a := domainauth.IdentityKey{SubjectID: "a:b", Email: "c"}
	b := domainauth.IdentityKey{SubjectID: "a", Email: "b:c"}

	c.set(a, domainauth.Identity{SubjectID: "a:b", Role: domainauth.RoleAdmin}, gen)
	c.set(b, domainauth.Identity{SubjectID: "a", Role: domainauth.RoleStudent}, gen)

	got, _ := c.Get(a)
	assert.Equal(t, domainauth.RoleAdmin, got.Role)
	got, _ = c.Get(b)
	assert.Equal(t, domainauth.RoleStudent, got.Role)
}
