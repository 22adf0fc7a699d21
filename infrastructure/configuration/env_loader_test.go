package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line string
		key  string
		val  string
		ok   bool
	}{
		{line: "VK_CLIENT_ID=123", key: "VK_CLIENT_ID", val: "123", ok: true},
		{line: "export TELEGRAM_BOT_TOKEN=1:abc", key: "TELEGRAM_BOT_TOKEN", val: "1:abc", ok: true},
		{line: `DB_PASSWORD="p@ss # not a comment"`, key: "DB_PASSWORD", val: "p@ss # not a comment", ok: true},
		{line: `GREETING="a\nb"`, key: "GREETING", val: "a\nb", ok: true},
		{line: `RAW='a\nb'`, key: "RAW", val: `a\nb`, ok: true},
		{line: "PORT=8080 # local", key: "PORT", val: "8080", ok: true},
		{line: "EMPTY=", key: "EMPTY", val: "", ok: true},
		{line: "   # comment", ok: false},
		{line: "", ok: false},
		{line: "NOEQUALS", ok: false},
		{line: "BAD KEY=1", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, val, ok := parseEnvLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.val, val)
		})
	}
}

func TestLoadEnvFromFile_KeepsProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("export BLOG_SOCIAL_FROM_FILE=\"file\"\nBLOG_SOCIAL_PRESET=file\n"), 0o600))
	t.Setenv("BLOG_SOCIAL_PRESET", "process")
	require.NoError(t, os.Unsetenv("BLOG_SOCIAL_FROM_FILE"))
	t.Cleanup(func() { _ = os.Unsetenv("BLOG_SOCIAL_FROM_FILE") })

	loaded := LoadEnvFromFile(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "file", os.Getenv("BLOG_SOCIAL_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("BLOG_SOCIAL_PRESET"))
}
