package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/syssam/schemaviz/internal/config"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteErrorsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := New(config.Default(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
	}{
		{"json", func(w http.ResponseWriter) { s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}) }},
		{"body", func(w http.ResponseWriter) { s.writeBody(w, artifact{ContentType: "text/plain", Body: []byte("x")}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			w := brokenWriter{httptest.NewRecorder()}
			tt.write(w)
			assert.Equal(t, http.StatusOK, w.Code)

			entries := logs.FilterMessage("failed to write response").All()
			require.Len(t, entries, 1)
			assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
			assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
		})
	}
}
