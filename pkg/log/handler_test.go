package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salaryErrors "github.com/YuminosukeSato/salaryml/pkg/errors"
)

func slogEntry(t *testing.T, logErr error) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	NewSlogProvider(&buf, LevelDebug).GetLogger().Error("salary pipeline failed", logErr)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestErrorDetailHandler_TrainingError(t *testing.T) {
	entry := slogEntry(t, salaryErrors.NewTrainingError("evaluate", salaryErrors.ErrZeroVariance))

	assert.Equal(t, ErrorTrainingFailed, entry[ErrorCodeKey])
	assert.Equal(t, "evaluate", entry[ErrorStageKey])
	assert.Contains(t, entry[ErrAttrKey], "training failed at evaluate")
	assert.NotEmpty(t, entry[StacktraceAttrKey])
}

func TestErrorDetailHandler_DataError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantRecord interface{}
		wantColumn interface{}
	}{
		{
			name:       "record and field",
			err:        salaryErrors.NewRecordDataError(3, "salary", "missing label"),
			wantRecord: 3.0,
			wantColumn: "salary",
		},
		{
			name: "whole batch",
			err:  salaryErrors.NewDataError("no records supplied"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := slogEntry(t, tt.err)
			assert.Equal(t, ErrorInvalidInput, entry[ErrorCodeKey])
			assert.Equal(t, tt.wantRecord, entry[RecordIndexKey])
			assert.Equal(t, tt.wantColumn, entry[ColumnKey])
		})
	}
}

func TestErrorDetailHandler_EncodingAndNotTrained(t *testing.T) {
	entry := slogEntry(t, salaryErrors.NewEncodingError("experience_years", "value is not finite", "+Inf"))
	assert.Equal(t, "experience_years", entry[ColumnKey])
	assert.Equal(t, ErrorInvalidInput, entry[ErrorCodeKey])

	entry = slogEntry(t, salaryErrors.NewNotTrainedError("predict"))
	assert.Equal(t, ErrorNotTrained, entry[ErrorCodeKey])
	assert.NotContains(t, entry, ErrorStageKey)
}

func TestErrorDetailHandler_NoError(t *testing.T) {
	var buf bytes.Buffer
	NewSlogProvider(&buf, LevelDebug).GetLogger().Info("model trained", R2ScoreKey, 0.87)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.NotContains(t, entry, ErrorCodeKey)
	assert.NotContains(t, entry, StacktraceAttrKey)
}
