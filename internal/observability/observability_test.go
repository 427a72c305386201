// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-engine/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "info", Format: "json"})
	log = WithStage(WithRun(log, "run-1"), "filter")

	log.Debug().Msg("hidden")
	log.Info().Int("kept", 3).Msg("filtered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "filtered", entry["message"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "filter", entry["stage"])
	assert.Equal(t, float64(3), entry["kept"])
	assert.Contains(t, entry, "time")
}

func TestNewLoggerToConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Level: "debug", Format: "console"})
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestIntoContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, types.LoggingConfig{Format: "json"})
	ctx := IntoContext(context.Background(), WithRun(log, "abc"))

	zerolog.Ctx(ctx).Info().Msg("from context")
	assert.Contains(t, buf.String(), `"run_id":"abc"`)
}

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics("test")

	m.DocumentsLoaded.Add(5)
	m.RecordExcluded("not_covid", 3)
	m.RecordExcluded("not_covid", 0)
	m.RecordExcluded("missing_id", 1)
	m.RecordTopics([]string{"treatment", "vaccine"})
	m.RecordTopics([]string{"treatment"})
	m.RecordDrugMentions(map[string]int{"remdesivir": 4, "zero": 0})
	m.ObserveStage("filter", time.Now().Add(-time.Second))

	assert.Equal(t, float64(5), testutil.ToFloat64(m.DocumentsLoaded))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DocumentsExcluded.WithLabelValues("not_covid")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DocumentsExcluded.WithLabelValues("missing_id")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TopicAssignments.WithLabelValues("treatment")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.DrugMentions.WithLabelValues("remdesivir")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DrugMentions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestMetricsAreIsolated(t *testing.T) {
	a := NewMetrics("same")
	b := NewMetrics("same")
	a.ClinicalPapers.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.ClinicalPapers))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("cord_engine")
	m.DocumentsIndexed.WithLabelValues("cord19-docs").Add(7)

	path := filepath.Join(t.TempDir(), "cord_engine.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cord_engine_documents_indexed_total{index="cord19-docs"} 7`)
}
