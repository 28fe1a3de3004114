package envconfig

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestPort(t *testing.T) {
	t.Setenv("PORT", "")
	assert.Equal(t, "8080", Port())

	t.Setenv("PORT", " 9000 ")
	assert.Equal(t, "9000", Port())
}

func TestModels(t *testing.T) {
	t.Setenv("XRAY_MODELS", "")
	assert.Equal(t, "weights", Models())

	t.Setenv("XRAY_MODELS", `"/opt/xray/weights"`)
	assert.Equal(t, "/opt/xray/weights", Models())
}

func TestNumThreads(t *testing.T) {
	cases := map[string]int{
		"":     0,
		"4":    4,
		"nope": 0,
		"-2":   0,
	}
	for value, want := range cases {
		t.Setenv("XRAY_NUM_THREADS", value)
		assert.Equal(t, want, NumThreads(), "XRAY_NUM_THREADS=%q", value)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	t.Setenv("XRAY_MAX_UPLOAD_MB", "")
	assert.Equal(t, int64(10<<20), MaxUploadBytes())

	t.Setenv("XRAY_MAX_UPLOAD_MB", "2")
	assert.Equal(t, int64(2<<20), MaxUploadBytes())

	t.Setenv("XRAY_MAX_UPLOAD_MB", "0")
	assert.Equal(t, int64(10<<20), MaxUploadBytes())

	t.Setenv("XRAY_MAX_UPLOAD_MB", "9223372036854775807")
	assert.Equal(t, int64(1024<<20), MaxUploadBytes())
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("XRAY_ORIGINS", "")
	assert.Equal(t, []string{"*"}, AllowedOrigins())

	t.Setenv("XRAY_ORIGINS", "http://localhost:5173, https://xray.example.com,,")
	assert.Equal(t, []string{"http://localhost:5173", "https://xray.example.com"}, AllowedOrigins())
}

func TestLogLevel(t *testing.T) {
	t.Setenv("XRAY_LOG_LEVEL", "")
	assert.Equal(t, logrus.InfoLevel, LogLevel())

	t.Setenv("XRAY_LOG_LEVEL", "debug")
	assert.Equal(t, logrus.DebugLevel, LogLevel())
}
