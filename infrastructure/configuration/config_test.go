package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfiguration tests the configuration package basic functionality
func TestConfiguration(t *testing.T) {
	t.Run("defaults_applied", func(t *testing.T) {
		require.NotZero(t, C.App.Port, "App port should have a default")
		assert.NotEmpty(t, C.Social.PlaceholderImage)
		assert.NotEmpty(t, C.Social.ScheduleSpec)
		assert.Positive(t, C.Social.ScheduleBatch)
		assert.Positive(t, C.Social.RequestTimeout())
	})
}

func TestInitSocial_EnvOverrides(t *testing.T) {
	t.Setenv("VK_CLIENT_ID", "vk-id")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("THREAD_API_VERSION", "v19.0")
	t.Setenv("SOCIAL_PLACEHOLDER_IMAGE", "https://cdn.example.org/p.png")

	var c Config
	c.Social.VK.ClientID = "from-file"
	initSocial(&c)

	assert.Equal(t, "from-file", c.Social.VK.ClientID, "file value wins over env for credentials")
	assert.Equal(t, "bot-token", c.Social.Telegram.BotToken)
	assert.Equal(t, "v19.0", c.Social.Thread.APIVersion)
	assert.Equal(t, "5.131", c.Social.VK.APIVersion)
	assert.Equal(t, "https://cdn.example.org/p.png", c.Social.PlaceholderImage)
	assert.Equal(t, 15*time.Second, c.Social.RequestTimeout())
	assert.Equal(t, 60*time.Second, c.Social.ContentCacheTTL())
	assert.Equal(t, 30*time.Second, c.Social.RefreshLockTTL())
}

func TestInitApp_PortResolution(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "8080")
	var c Config
	initApp(&c)
	assert.Equal(t, 8080, c.App.Port)

	t.Setenv("APP_PORT", "9090")
	initApp(&c)
	assert.Equal(t, 9090, c.App.Port)
}

func TestToHTTPSCallback(t *testing.T) {
	assert.Equal(t, "https://localhost/cb", toHTTPSCallback("http://localhost/cb"))
	assert.Equal(t, "https://x/cb", toHTTPSCallback("https://x/cb"))
	assert.True(t, hasHTTPS("https://x"))
	assert.False(t, hasHTTPS("http://x"))
}

func TestRedisClient_DB(t *testing.T) {
	assert.Equal(t, 0, RedisClient{}.DB())
	assert.Equal(t, 3, RedisClient{DatabaseName: "3"}.DB())
	assert.Equal(t, 0, RedisClient{DatabaseName: "social"}.DB(), "non-numeric names fall back to the default database")
}
