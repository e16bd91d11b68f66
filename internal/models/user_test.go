package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNames(t *testing.T) {
	u := &User{UserName: "test"}
	assert.Equal(t, "test", u.DisplayName())

	u.PhoneNumber = StringPtr("+12025550143")
	assert.Equal(t, "+12025550143", u.DisplayUserName())

	u.Email = StringPtr("test@lob.local")
	assert.Equal(t, "test@lob.local", u.DisplayUserName())

	u.FullName = StringPtr("Test User")
	assert.Equal(t, "Test User", u.DisplayName())
	assert.Equal(t, "test@lob.local", u.DisplayUserName())
}

func TestIsLockedOut(t *testing.T) {
	now := time.Now()
	u := &User{LockoutEnabled: true, LockoutEnd: TimePtr(now.Add(time.Minute))}
	assert.True(t, u.IsLockedOut(now))
	assert.False(t, u.IsLockedOut(now.Add(2*time.Minute)))

	u.LockoutEnabled = false
	assert.False(t, u.IsLockedOut(now))
}

func TestNormalize(t *testing.T) {
	u := &User{UserName: "Test", Email: StringPtr("Test@Lob.local")}
	u.Normalize()
	assert.Equal(t, "TEST", u.NormalizedUserName)
	assert.Equal(t, "TEST@LOB.LOCAL", *u.NormalizedEmail)
}
