package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserNavigator(t *testing.T) {
	var opened, inApp []string
	nav := BrowserNavigator{
		InApp: NavigatorFunc(func(target string) error {
			inApp = append(inApp, target)
			return nil
		}),
		Open: func(url string) error {
			opened = append(opened, url)
			return nil
		},
	}

	require.NoError(t, nav.Navigate("https://accounts.google.com/o/oauth2/auth?x=1"))
	require.NoError(t, nav.Navigate("http://localhost:3000/"))
	require.NoError(t, nav.Navigate("/login"))

	assert.Equal(t, []string{"https://accounts.google.com/o/oauth2/auth?x=1", "http://localhost:3000/"}, opened)
	assert.Equal(t, []string{"/login"}, inApp)

	assert.NoError(t, BrowserNavigator{Open: nav.Open}.Navigate("/login"), "no in-app navigator is a no-op")
}
