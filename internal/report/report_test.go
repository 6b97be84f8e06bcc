package report

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-content-regen/pkg/media"
)

func item(id int64, name string) media.WorkItem {
	return media.WorkItem{
		Record:     media.Record{ID: id, FileName: "test.jpg"},
		Conversion: media.Conversion{Name: name, Format: media.FormatJPEG},
	}
}

func TestSummarizeCountsAndFailures(t *testing.T) {
	missing := fmt.Errorf("source file missing: 2/test.jpg")
	outcomes := []Outcome{
		Succeeded(item(1, "thumb"), time.Millisecond),
		Failed(item(2, "thumb"), missing, time.Millisecond),
		Succeeded(item(3, "thumb"), time.Millisecond),
		Skipped(item(4, "thumb"), nil),
	}

	r := Summarize("run-1", time.Now(), outcomes)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, SeverityDegraded, r.Severity)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "2/thumb", r.Failures[0].Item.Key())
	assert.Equal(t, missing.Error(), r.Failures[0].Reason())
}

func TestExitStatusIgnoresItemFailures(t *testing.T) {
	allFailed := Summarize("run", time.Now(), []Outcome{
		Failed(item(1, "thumb"), errors.New("boom"), 0),
		Failed(item(2, "thumb"), errors.New("boom"), 0),
	})
	assert.Equal(t, SeverityDegraded, allFailed.Severity)
	assert.Equal(t, ExitOK, ExitStatus(allFailed))

	empty := Summarize("run", time.Now(), nil)
	assert.Equal(t, SeverityOK, empty.Severity)
	assert.Equal(t, ExitOK, ExitStatus(empty))
}

func TestExitStatusInterrupted(t *testing.T) {
	r := Summarize("run", time.Now(), []Outcome{
		Failed(item(1, "thumb"), errors.New("boom"), 0),
		Skipped(item(2, "thumb"), ErrInterrupted),
	})
	assert.Equal(t, SeverityInterrupted, r.Severity)
	assert.Equal(t, ExitInterrupted, ExitStatus(r))
	assert.Equal(t, "interrupted", r.Severity.String())
}

func TestWriteTextAndLog(t *testing.T) {
	r := Summarize("run-7", time.Now(), []Outcome{
		Succeeded(item(1, "thumb"), 0),
		Failed(item(2, "thumb"), errors.New("source file missing"), 0),
	})

	var text bytes.Buffer
	require.NoError(t, WriteText(&text, r))
	assert.Contains(t, text.String(), "Done: 1 regenerated, 0 skipped, 1 failed (of 2)")
	assert.Contains(t, text.String(), "2/thumb (2/conversions/thumb.jpg): source file missing")

	var logs bytes.Buffer
	Log(zerolog.New(&logs), r)
	assert.Contains(t, logs.String(), `"reason":"source file missing"`)
	assert.Contains(t, logs.String(), `"run_id":"run-7"`)
	assert.Contains(t, logs.String(), `"severity":"degraded"`)
}
