package executors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tendant/simple-content-regen/internal/report"
	"github.com/tendant/simple-content-regen/internal/workflows"
	"github.com/tendant/simple-content-regen/pkg/media"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePipeline returns the item key as content, or the configured error.
type fakePipeline struct {
	mu     sync.Mutex
	calls  []string
	errs   map[string]error
	panics map[string]bool
	delay  time.Duration
	onCall func(key string)
}

func (p *fakePipeline) Produce(ctx context.Context, rec media.Record, conv media.Conversion) ([]byte, error) {
	key := media.WorkItem{Record: rec, Conversion: conv}.Key()
	p.mu.Lock()
	p.calls = append(p.calls, key)
	p.mu.Unlock()
	if p.onCall != nil {
		p.onCall(key)
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.panics[key] {
		panic("decoder exploded")
	}
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	return []byte(key), nil
}

func (p *fakePipeline) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// memWriter records writes and detects concurrent writes to one path.
type memWriter struct {
	mu       sync.Mutex
	files    map[string]string
	inflight map[string]bool
	overlap  bool
	fail     map[string]bool
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string]string{}, inflight: map[string]bool{}, fail: map[string]bool{}}
}

func (w *memWriter) Write(ctx context.Context, rec media.Record, path string, r io.Reader) error {
	w.mu.Lock()
	if w.inflight[path] {
		w.overlap = true
	}
	w.inflight[path] = true
	fail := w.fail[path]
	w.mu.Unlock()

	data, err := io.ReadAll(r)

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, path)
	if err != nil {
		return err
	}
	if fail {
		return errors.New("disk full")
	}
	w.files[path] = string(data)
	return nil
}

func workItems(ids []int64, convs ...string) []media.WorkItem {
	var items []media.WorkItem
	for _, id := range ids {
		for _, name := range convs {
			items = append(items, media.WorkItem{
				Record:     media.Record{ID: id, Collection: "images", FileName: "test.jpg"},
				Conversion: media.Conversion{Name: name, Format: media.FormatJPEG},
			})
		}
	}
	return items
}

func TestRunIsolatesFailures(t *testing.T) {
	items := workItems([]int64{1, 2, 3, 4, 5}, "thumb")
	pipeline := &fakePipeline{
		errs: map[string]error{
			"2/thumb": fmt.Errorf("%w: 2/test.jpg", workflows.ErrSourceMissing),
			"4/thumb": fmt.Errorf("%w: decode test.jpg", workflows.ErrProcessing),
		},
	}
	writer := newMemWriter()

	outcomes := NewRegenerationExecutor(pipeline, writer).Run(context.Background(), items)

	require.Len(t, outcomes, 5)
	assert.Equal(t, 5, pipeline.callCount(), "every item is attempted")
	assert.Equal(t, []string{"1/thumb", "2/thumb", "3/thumb", "4/thumb", "5/thumb"}, pipeline.calls)

	statuses := make([]report.Status, len(outcomes))
	for i, o := range outcomes {
		statuses[i] = o.Status
		assert.Equal(t, items[i].Key(), o.Item.Key())
	}
	assert.Equal(t, []report.Status{
		report.StatusSucceeded, report.StatusFailed, report.StatusSucceeded,
		report.StatusFailed, report.StatusSucceeded,
	}, statuses)
	assert.ErrorIs(t, outcomes[1].Err, workflows.ErrSourceMissing)
	assert.ErrorIs(t, outcomes[3].Err, workflows.ErrProcessing)

	assert.Equal(t, "1/thumb", writer.files["1/conversions/thumb.jpg"])
	assert.NotContains(t, writer.files, "2/conversions/thumb.jpg")
}

func TestRunWriteFailureAndPanicAreItemFailures(t *testing.T) {
	items := workItems([]int64{1, 2, 3}, "thumb")
	pipeline := &fakePipeline{panics: map[string]bool{"3/thumb": true}}
	writer := newMemWriter()
	writer.fail["1/conversions/thumb.jpg"] = true

	outcomes := NewRegenerationExecutor(pipeline, writer).Run(context.Background(), items)

	assert.Equal(t, report.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason(), "disk full")
	assert.Equal(t, report.StatusSucceeded, outcomes[1].Status)
	assert.Equal(t, report.StatusFailed, outcomes[2].Status)
	assert.Contains(t, outcomes[2].Reason(), "pipeline panic")
}

func TestRunConcurrentMatchesSequential(t *testing.T) {
	ids := make([]int64, 20)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	items := workItems(ids, "thumb", "keep_original_format")
	errs := map[string]error{
		"3/thumb":                workflows.ErrSourceMissing,
		"3/keep_original_format": workflows.ErrSourceMissing,
		"11/thumb":               workflows.ErrProcessing,
	}

	sequential := NewRegenerationExecutor(&fakePipeline{errs: errs}, newMemWriter()).Run(context.Background(), items)

	writer := newMemWriter()
	var observed atomic.Int64
	concurrent := NewRegenerationExecutor(
		&fakePipeline{errs: errs, delay: time.Millisecond},
		writer,
		WithConcurrency(4),
		WithObserver(func(report.Outcome) { observed.Add(1) }),
	).Run(context.Background(), items)

	require.Len(t, concurrent, len(sequential))
	for i := range sequential {
		assert.Equal(t, sequential[i].Item.Key(), concurrent[i].Item.Key())
		assert.Equal(t, sequential[i].Status, concurrent[i].Status, concurrent[i].Item.Key())
	}
	assert.EqualValues(t, len(items), observed.Load())
	assert.False(t, writer.overlap, "a derived path was written concurrently")
	assert.Len(t, writer.files, len(items)-3)
}

func TestRunDryRun(t *testing.T) {
	items := workItems([]int64{1, 2}, "thumb")
	pipeline := &fakePipeline{}
	writer := newMemWriter()

	outcomes := NewRegenerationExecutor(pipeline, writer, WithDryRun(true)).Run(context.Background(), items)

	assert.Zero(t, pipeline.callCount())
	assert.Empty(t, writer.files)
	for _, o := range outcomes {
		assert.Equal(t, report.StatusSkipped, o.Status)
		assert.NoError(t, o.Err)
	}
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := workItems([]int64{1, 2, 3, 4}, "thumb")
	pipeline := &fakePipeline{onCall: func(key string) {
		if key == "2/thumb" {
			cancel()
		}
	}}

	outcomes := NewRegenerationExecutor(pipeline, newMemWriter()).Run(ctx, items)

	assert.Equal(t, 2, pipeline.callCount(), "in-flight item completes, later ones are not started")
	assert.Equal(t, report.StatusSucceeded, outcomes[0].Status)
	assert.Equal(t, report.StatusSucceeded, outcomes[1].Status)
	for _, o := range outcomes[2:] {
		assert.Equal(t, report.StatusSkipped, o.Status)
		assert.ErrorIs(t, o.Err, report.ErrInterrupted)
	}

	r := report.Summarize("run", time.Now(), outcomes)
	assert.Equal(t, report.ExitInterrupted, report.ExitStatus(r))
}

func TestGroupByRecord(t *testing.T) {
	items := []media.WorkItem{
		{Record: media.Record{ID: 2}}, {Record: media.Record{ID: 1}},
		{Record: media.Record{ID: 2}}, {Record: media.Record{ID: 3}},
	}
	assert.Equal(t, [][]int{{0, 2}, {1}, {3}}, groupByRecord(items))
	assert.Nil(t, groupByRecord(nil))
}

func TestRunEmpty(t *testing.T) {
	outcomes := NewRegenerationExecutor(&fakePipeline{}, newMemWriter(), WithConcurrency(3)).Run(context.Background(), nil)
	assert.Empty(t, outcomes)
}

func TestRunLogsArtifactMimeType(t *testing.T) {
	var buf bytes.Buffer
	e := NewRegenerationExecutor(&fakePipeline{}, newMemWriter(), WithLogger(zerolog.New(&buf)))

	rec := media.Record{ID: 1, Collection: "images", FileName: "test.png"}
	outcomes := e.Run(context.Background(), []media.WorkItem{
		{Record: rec, Conversion: media.Conversion{Name: "thumb", Format: media.FormatJPEG}},
		{Record: rec, Conversion: media.Conversion{Name: "keep_original_format"}},
	})
	require.Len(t, outcomes, 2)

	assert.Contains(t, buf.String(), `"mime":"image/jpeg"`)
	assert.Contains(t, buf.String(), `"mime":"image/png"`)
}
