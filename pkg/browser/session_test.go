package browser

import (
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

func TestParseStorageStateCookies(t *testing.T) {
	snapshot := []byte(`{
		"cookies": [
			{
				"name": "session_id",
				"value": "abc123",
				"domain": ".example.com",
				"path": "/",
				"expires": 1893456000,
				"httpOnly": true,
				"secure": true,
				"sameSite": "Lax"
			},
			{
				"name": "csrf",
				"value": "tok",
				"domain": "app.example.com",
				"path": "/account",
				"expires": -1,
				"sameSite": "strict"
			}
		],
		"origins": [
			{
				"origin": "https://example.com",
				"localStorage": [{"name": "theme", "value": "dark"}]
			}
		]
	}`)

	cookies, origins, err := parseStorageState(snapshot)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	first := cookies[0]
	assert.Equal(t, "session_id", first.Name)
	assert.Equal(t, "abc123", first.Value)
	assert.Equal(t, ".example.com", first.Domain)
	assert.Equal(t, "/", first.Path)
	assert.True(t, first.HTTPOnly)
	assert.True(t, first.Secure)
	assert.Equal(t, network.CookieSameSiteLax, first.SameSite)
	require.NotNil(t, first.Expires)
	assert.Equal(t, int64(1893456000), time.Time(*first.Expires).Unix())

	second := cookies[1]
	assert.Equal(t, "csrf", second.Name)
	assert.Nil(t, second.Expires, "non-positive expiry means a session cookie")
	assert.Equal(t, network.CookieSameSiteStrict, second.SameSite, "sameSite matching is case-insensitive")

	require.Len(t, origins, 1)
	assert.Equal(t, "https://example.com", origins[0].Origin)
	require.Len(t, origins[0].LocalStorage, 1)
	assert.Equal(t, "theme", origins[0].LocalStorage[0].Name)
}

func TestParseStorageStateEmpty(t *testing.T) {
	cookies, origins, err := parseStorageState([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, cookies)
	assert.Empty(t, origins)
}

func TestParseStorageStateMalformed(t *testing.T) {
	_, _, err := parseStorageState([]byte(`{"cookies": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing storage state")
}

func TestBuildAllocatorOptions(t *testing.T) {
	cfg := config.BrowserConfig{
		IgnoreTLSErrors: true,
		UserAgent:       "kestrel-test/1.0",
		Args:            []string{"--lang=en-US", "disable-sync"},
	}

	base := buildAllocatorOptions(config.BrowserConfig{}, true)
	withExtras := buildAllocatorOptions(cfg, false)

	assert.NotEmpty(t, base)
	assert.Len(t, withExtras, len(base)+3, "user agent and each custom arg add one option")
}
