package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"debug":     zerolog.DebugLevel,
		"INFO":      zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"":          zerolog.InfoLevel,
		" nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestInit_JSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Service: "veritas", Writer: &buf})

	log.Debug().Msg("hidden")
	apiLog := Named("api")
	apiLog.Info().Str("k", "v").Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "veritas", line["service"])
	assert.Equal(t, "api", line["component"])
	assert.Equal(t, "v", line["k"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInit_Console(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "console", Writer: &buf})

	log.Debug().Msg("console-msg")

	assert.Contains(t, buf.String(), "console-msg")
	assert.Contains(t, buf.String(), "DBG")
}
