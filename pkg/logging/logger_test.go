package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/civicdata/metasync/pkg/logging"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf)

	logger.Info().Str("check", "unique-directory-id").Msg("started")

	out := buf.String()
	assert.Contains(t, out, `"check":"unique-directory-id"`)
	assert.Contains(t, out, `"message":"started"`)
	assert.Contains(t, out, `"time"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.input))
		})
	}
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	tl.Info().Msg("one")
	tl.Warn().Msg("two")

	assert.Len(t, tl.Lines(), 2)
	assert.True(t, tl.Contains("one"))
	assert.False(t, tl.Contains("three"))
}
