// Package envconfig reads the server and CLI settings from the environment.
package envconfig

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Var returns the trimmed value of the environment variable key, with
// surrounding quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Port is the HTTP listen port. Configurable via PORT, default 8080.
func Port() string {
	if p := Var("PORT"); p != "" {
		return p
	}
	return "8080"
}

// Models is the directory holding the weight files. Configurable via
// XRAY_MODELS, default ./weights.
func Models() string {
	if dir := Var("XRAY_MODELS"); dir != "" {
		return dir
	}
	return "weights"
}

// SharedLibrary is the path to libonnxruntime, via ONNXRUNTIME_LIB.
func SharedLibrary() string {
	return Var("ONNXRUNTIME_LIB")
}

// NumThreads is the intra-op thread count, via XRAY_NUM_THREADS. Zero
// leaves the runtime default.
func NumThreads() int {
	return intVar("XRAY_NUM_THREADS", 0)
}

const (
	defaultUploadMB = 10
	maxUploadMB     = 1 << 10
)

// MaxUploadBytes bounds request bodies, via XRAY_MAX_UPLOAD_MB (default 10,
// at most 1024). Zero is rejected.
func MaxUploadBytes() int64 {
	mb := intVar("XRAY_MAX_UPLOAD_MB", defaultUploadMB)
	switch {
	case mb == 0:
		logrus.Warnf("invalid XRAY_MAX_UPLOAD_MB=0, using %d", defaultUploadMB)
		mb = defaultUploadMB
	case mb > maxUploadMB:
		logrus.Warnf("XRAY_MAX_UPLOAD_MB=%d exceeds %d, using %d", mb, maxUploadMB, maxUploadMB)
		mb = maxUploadMB
	}
	return int64(mb) << 20
}

// AllowedOrigins lists the CORS origins, via comma separated XRAY_ORIGINS.
// Default is every origin.
func AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(Var("XRAY_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// LogLevel parses XRAY_LOG_LEVEL, falling back to info.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(Var("XRAY_LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func intVar(key string, def int) int {
	s := Var(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		logrus.Warnf("invalid %s=%q, using %d", key, s, def)
		return def
	}
	return n
}
