package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLevel(t *testing.T) {
	testCases := []struct {
		name     string
		env      string
		expected logrus.Level
	}{
		{name: "Debug", env: "debug", expected: logrus.DebugLevel},
		{name: "Warn", env: "warn", expected: logrus.WarnLevel},
		{name: "Unknown falls back to info", env: "chatty", expected: logrus.InfoLevel},
		{name: "Empty falls back to info", env: "", expected: logrus.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tc.env)
			Init()
			assert.Equal(t, tc.expected, GetLogger().GetLevel())
		})
	}
}

func TestJSONOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	Init()

	var buf bytes.Buffer
	SetOutput(&buf)

	WithField("listing_id", 42).Info("viewed")

	assert.Contains(t, buf.String(), `"listing_id":42`)
	assert.Contains(t, buf.String(), `"msg":"viewed"`)
}
