package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationItemsAnonymous(t *testing.T) {
	items := NewNavigationService().GetItems(false)
	urls := make([]string, 0, len(items))
	for _, item := range items {
		urls = append(urls, item.URL)
	}
	assert.Equal(t, []string{"/", "/terms", "/pricing", "/about"}, urls)
}

func TestNavigationItemsAuthenticated(t *testing.T) {
	items := NewNavigationService().GetItems(true)
	require.Len(t, items, 5)
	settings := items[4]
	assert.Equal(t, "/settings", settings.URL)
	require.Len(t, settings.Children, 4)
	assert.Equal(t, "/settings/profile", settings.Children[0].URL)
	assert.Equal(t, "/settings/sessions", settings.Children[3].URL)
}
