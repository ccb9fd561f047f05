package config

import (
	"os"
	"path/filepath"
	"testing"

	"blotch/sparkos/tasks/watchface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blotch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
display:
  width: 144
  height: 168
flash:
  path: ":memory:"
clock:
  use_24h: true
  pad: zero
face:
  split_date: true
defaults:
  background: "#102030"
  highlight: "0xFF0000"
  time_font: alt2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	host := cfg.Host()
	assert.Equal(t, 144, host.Width)
	assert.Equal(t, 168, host.Height)
	assert.Equal(t, 51, host.OverlayHeight)
	assert.Equal(t, ":memory:", host.FlashPath)
	assert.True(t, host.Use24Hour)
	assert.Equal(t, 1.0, host.ClockSpeed)

	ac, err := cfg.App()
	require.NoError(t, err)
	assert.Equal(t, byte('0'), ac.Watchface.Pad)
	assert.True(t, ac.Watchface.SplitDate)
	require.NotNil(t, ac.Watchface.Store.Defaults)

	d := *ac.Watchface.Store.Defaults
	assert.Equal(t, watchface.ColorFromHex(0x102030), d.Background)
	assert.Equal(t, watchface.ColorFromHex(0xFF0000), d.Highlight)
	assert.Equal(t, watchface.ColorFromHex(0xFFFFFF), d.Primary)
	assert.Equal(t, watchface.FontAlt2, d.TimeFont)
}

func TestLoadMissingDefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"pad":   "clock:\n  pad: dots\n",
		"color": "defaults:\n  primary: \"#12\"\n",
		"font":  "defaults:\n  time_font: comic\n",
		"speed": "clock:\n  speed: -2\n",
		"yaml":  "display: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestParseHex(t *testing.T) {
	for _, s := range []string{"#00AAFF", "0x00aaff", "00AAFF", " #00aaff "} {
		v, err := ParseHex(s)
		require.NoError(t, err, s)
		assert.Equal(t, int32(0x00AAFF), v, s)
	}
	_, err := ParseHex("#GG0000")
	assert.Error(t, err)
}

func TestParseFont(t *testing.T) {
	f, err := ParseFont("1")
	require.NoError(t, err)
	assert.Equal(t, watchface.FontAlt1, f)

	f, err = ParseFont("Default")
	require.NoError(t, err)
	assert.Equal(t, watchface.FontDefault, f)

	_, err = ParseFont("3")
	assert.Error(t, err)
}

func TestParseOption(t *testing.T) {
	v, err := ParseOption(watchface.OptTimeFontChoice, "alt1")
	require.NoError(t, err)
	assert.Equal(t, int32(watchface.FontAlt1), v)

	v, err = ParseOption(watchface.OptUnderlineColor, "#00FF00")
	require.NoError(t, err)
	assert.Equal(t, int32(0x00FF00), v)

	_, err = ParseOption("sparkle", "#00FF00")
	assert.Error(t, err)
}
