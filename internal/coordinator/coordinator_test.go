// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/collection"
	"github.com/pdiddy/pdfsum/internal/repository"
	"github.com/pdiddy/pdfsum/pkg/types"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

type fakeRepo struct {
	uploads, scans, deletes int32

	// release, when non-nil, blocks every call until it is closed.
	release chan struct{}

	records []types.Summary
	scan    types.ScanResult
	err     error
}

func (f *fakeRepo) wait() {
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeRepo) UploadDocument(_ context.Context, _ []byte, _ string) ([]types.Summary, error) {
	atomic.AddInt32(&f.uploads, 1)
	f.wait()
	return f.records, f.err
}

func (f *fakeRepo) ScanRemoteDrive(context.Context) (types.ScanResult, error) {
	atomic.AddInt32(&f.scans, 1)
	f.wait()
	return f.scan, f.err
}

func (f *fakeRepo) DeleteSummary(context.Context, types.SummaryID) error {
	atomic.AddInt32(&f.deletes, 1)
	f.wait()
	return f.err
}

type countingRefresher struct{ n int32 }

func (r *countingRefresher) Refresh(context.Context) error {
	atomic.AddInt32(&r.n, 1)
	return nil
}

func summary(id string) types.Summary {
	return types.Summary{ID: types.SummaryID(id), Title: "doc " + id}
}

func storeWith(ids ...string) *collection.Store {
	s := collection.NewStore()
	var list []types.Summary
	for _, id := range ids {
		list = append(list, summary(id))
	}
	s.Replace(list)
	return s
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantMsg string
	}{
		{"valid pdf", NewDocument("a.pdf", pdfBytes), ""},
		{"upper-case extension", NewDocument("REPORT.PDF", pdfBytes), ""},
		{"wrong extension", NewDocument("a.txt", pdfBytes), "not a PDF"},
		{"pdf name with text content", NewDocument("a.pdf", []byte("hello world")), "not a PDF"},
		{"too large", Document{Name: "big.pdf", Size: 12 << 20, Data: pdfBytes}, "too large"},
		{"exactly at limit", Document{Name: "edge.pdf", Size: types.MaxUploadBytes, Data: pdfBytes}, ""},
		{"type checked before size", Document{Name: "big.txt", Size: 12 << 20, Data: []byte("x")}, "not a PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc, 0)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apierr.ErrValidation)
			assert.Equal(t, tt.wantMsg, apierr.Message(err))
		})
	}
}

func TestValidateReportsHumanSizes(t *testing.T) {
	err := Validate(Document{Name: "big.pdf", Size: 12 << 20, Data: pdfBytes}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "12 MiB")
	assert.Contains(t, err.Error(), "10 MiB")
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.pdf")
	require.NoError(t, os.WriteFile(small, pdfBytes, 0o644))

	doc, err := ReadDocument(small, 1024)
	require.NoError(t, err)
	assert.Equal(t, "small.pdf", doc.Name)
	assert.Equal(t, pdfBytes, doc.Data)
	assert.Equal(t, int64(len(pdfBytes)), doc.Size)

	big := filepath.Join(dir, "big.pdf")
	data := append(append([]byte{}, pdfBytes...), make([]byte, 8000)...)
	require.NoError(t, os.WriteFile(big, data, 0o644))

	doc, err = ReadDocument(big, 4096)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), doc.Size)
	assert.Len(t, doc.Data, sniffLen)
	assert.Equal(t, "too large", apierr.Message(Validate(doc, 4096)))

	_, err = ReadDocument(filepath.Join(dir, "missing.pdf"), 0)
	assert.Error(t, err)
	_, err = ReadDocument(dir, 0)
	assert.Error(t, err)
}

// --- Upload ---

func TestUploadOversizedMakesNoCall(t *testing.T) {
	repo := &fakeRepo{}
	store := storeWith("1")
	before := store.Snapshot()
	u := NewUpload(repo, store, types.UploadConfig{})

	st, err := u.Run(context.Background(), Document{Name: "big.pdf", Size: 12 << 20, Data: pdfBytes})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrValidation)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "too large", st.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&repo.uploads))
	assert.Equal(t, before, store.Snapshot())
}

func TestUploadSuccess(t *testing.T) {
	repo := &fakeRepo{records: []types.Summary{summary("3")}}
	store := storeWith("1", "2")
	u := NewUpload(repo, store, types.UploadConfig{ProgressInterval: time.Millisecond})

	st, err := u.Run(context.Background(), NewDocument("report.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "Upload successful", st.Message)
	assert.Equal(t, 1.0, st.Progress)
	assert.Equal(t, 1, st.Count)
	assert.True(t, st.DismissAt.IsZero())
	assert.Len(t, store.Snapshot().Summaries, 3)
}

type staticSession struct {
	base   string
	client *http.Client
}

func (s staticSession) BaseURL() string          { return s.base }
func (s staticSession) HTTPClient() *http.Client { return s.client }
func (s staticSession) Authenticated() bool      { return true }

func TestUploadThroughClientAddsCreatedRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"id": 7, "title": "Report", "summary": "Revenue grew.", "key_messages": "up\nflat"}`)
	}))
	t.Cleanup(ts.Close)

	repo := repository.New(staticSession{base: ts.URL, client: ts.Client()})
	store := storeWith("1")
	refresher := &countingRefresher{}
	u := NewUpload(repo, store, types.UploadConfig{ProgressInterval: time.Millisecond}, WithRefresher(refresher))

	st, err := u.Run(context.Background(), NewDocument("report.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, int32(0), atomic.LoadInt32(&refresher.n))

	got, ok := store.Get("7")
	require.True(t, ok)
	assert.Equal(t, "Revenue grew.", got.SummaryText)
	assert.Equal(t, []string{"up", "flat"}, got.KeyMessages)
}

func TestUploadExistingIDLeavesCollectionUnchanged(t *testing.T) {
	repo := &fakeRepo{records: []types.Summary{{ID: "3", Title: "changed"}}}
	store := storeWith("1", "2", "3")
	before := store.Snapshot()
	u := NewUpload(repo, store, types.UploadConfig{})

	st, err := u.Run(context.Background(), NewDocument("r.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, before, store.Snapshot())
}

func TestUploadAutoDismiss(t *testing.T) {
	repo := &fakeRepo{records: []types.Summary{summary("3")}}
	u := NewUpload(repo, storeWith(), types.UploadConfig{DismissAfter: 20 * time.Millisecond})
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u.now = func() time.Time { return fixed }

	st, err := u.Run(context.Background(), NewDocument("r.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(20*time.Millisecond), st.DismissAt)

	assert.Eventually(t, func() bool { return u.State().Phase == PhaseIdle }, time.Second, 5*time.Millisecond)
}

func TestUploadProgressIsMonotonicAndCapped(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{}), records: []types.Summary{summary("9")}}

	var mu sync.Mutex
	var progress []float64
	u := NewUpload(repo, storeWith(), types.UploadConfig{ProgressInterval: time.Millisecond},
		WithOnChange(func(st State) {
			mu.Lock()
			progress = append(progress, st.Progress)
			mu.Unlock()
		}))

	ch, err := u.Start(context.Background(), NewDocument("r.pdf", pdfBytes))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return u.State().Progress == 0.9 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0.9, u.State().Progress)

	close(repo.release)
	final := <-ch
	assert.Equal(t, 1.0, final.Progress)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, progress)
	assert.Equal(t, 0.0, progress[0])
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	for _, p := range progress[:len(progress)-1] {
		assert.LessOrEqual(t, p, 0.9)
	}
}

func TestUploadFailureLeavesStore(t *testing.T) {
	repo := &fakeRepo{err: &apierr.Error{Kind: apierr.KindServer, Op: "upload", Status: 500, Message: "upload failed"}}
	store := storeWith("1")
	before := store.Snapshot()
	u := NewUpload(repo, store, types.UploadConfig{})

	st, err := u.Run(context.Background(), NewDocument("r.pdf", pdfBytes))
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "upload failed", st.Message)
	assert.Equal(t, before, store.Snapshot())
}

func TestUploadWithoutRecordsRefreshes(t *testing.T) {
	ref := &countingRefresher{}
	u := NewUpload(&fakeRepo{}, storeWith(), types.UploadConfig{}, WithRefresher(ref))

	_, err := u.Run(context.Background(), NewDocument("r.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ref.n))
}

func TestUploadBusy(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{})}
	u := NewUpload(repo, storeWith(), types.UploadConfig{})

	ch, err := u.Start(context.Background(), NewDocument("a.pdf", pdfBytes))
	require.NoError(t, err)

	_, err = u.Start(context.Background(), NewDocument("b.pdf", pdfBytes))
	assert.ErrorIs(t, err, ErrBusy)
	_, err = u.Start(context.Background(), NewDocument("c.txt", nil))
	assert.ErrorIs(t, err, ErrBusy)

	close(repo.release)
	<-ch
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.uploads))
}

func TestNextProgress(t *testing.T) {
	p := 0.0
	for i := 0; i < 20; i++ {
		p = nextProgress(p)
	}
	assert.Equal(t, 0.9, p)
	assert.Equal(t, 0.3, nextProgress(nextProgress(nextProgress(0))))
}

// --- Scan ---

func TestScanConcurrentMakesOneCall(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{})}
	s := NewScan(repo, storeWith())

	var wg sync.WaitGroup
	var busy, started int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Start(context.Background()); errors.Is(err, ErrBusy) {
				atomic.AddInt32(&busy, 1)
			} else if err == nil {
				atomic.AddInt32(&started, 1)
			}
		}()
	}
	wg.Wait()
	close(repo.release)

	assert.Equal(t, int32(1), started)
	assert.Equal(t, int32(1), busy)
	assert.Eventually(t, func() bool { return s.State().Phase == PhaseSucceeded }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.scans))
}

func TestScanNothingNew(t *testing.T) {
	ref := &countingRefresher{}
	s := NewScan(&fakeRepo{scan: types.ScanResult{ProcessedFiles: []string{}}}, storeWith(), WithRefresher(ref))

	st, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "No new files found", st.Message)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ref.n))
}

func TestScanProcessedFiles(t *testing.T) {
	ref := &countingRefresher{}
	repo := &fakeRepo{scan: types.ScanResult{ProcessedCount: 2, ProcessedFiles: []string{"a.pdf", "b.pdf"}}}
	s := NewScan(repo, storeWith(), WithRefresher(ref))

	st, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Successfully processed 2 new files", st.Message)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, st.Files)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ref.n))
}

func TestScanRecordsAreAdded(t *testing.T) {
	ref := &countingRefresher{}
	repo := &fakeRepo{scan: types.ScanResult{ProcessedCount: 1, Summaries: []types.Summary{summary("5")}}}
	store := storeWith("1")
	s := NewScan(repo, store, WithRefresher(ref))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.Snapshot().Summaries, 2)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ref.n))
}

func TestScanFailure(t *testing.T) {
	repo := &fakeRepo{err: apierr.Network("scan", errors.New("timeout"))}
	store := storeWith("1")
	before := store.Snapshot()
	s := NewScan(repo, store)

	st, err := s.Run(context.Background())
	assert.ErrorIs(t, err, apierr.ErrNetwork)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, "network error", st.Message)
	assert.Equal(t, before, store.Snapshot())

	// A failed scan can be retried.
	repo.err = nil
	st, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
}

func TestScanMessage(t *testing.T) {
	assert.Equal(t, "No new files found", ScanMessage(0))
	assert.Equal(t, "Successfully processed 1 new files", ScanMessage(1))
	assert.Equal(t, "Successfully processed 12 new files", ScanMessage(12))
}

// --- Delete ---

func TestDeleteRemovesAfterConfirmation(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{})}
	store := storeWith("1", "2")
	d := NewDelete(repo, store)

	ch, err := d.Start(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, store.Snapshot().Summaries, 2, "record must stay until the server confirms")

	close(repo.release)
	st := <-ch
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, "Deleted summary 1", st.Message)

	got := store.Snapshot().Summaries
	require.Len(t, got, 1)
	assert.Equal(t, types.SummaryID("2"), got[0].ID)
}

func TestDeleteFailureLeavesSnapshot(t *testing.T) {
	for _, repoErr := range []error{
		apierr.New(apierr.KindNotFound, "delete", "Summary not found"),
		apierr.New(apierr.KindServer, "delete", "failed to delete summary"),
		apierr.Network("delete", errors.New("refused")),
	} {
		store := storeWith("1", "2")
		before := store.Snapshot()
		d := NewDelete(&fakeRepo{err: repoErr}, store)

		st, err := d.Run(context.Background(), "1")
		require.Error(t, err)
		assert.Equal(t, PhaseFailed, st.Phase)
		assert.Equal(t, apierr.Message(repoErr), st.Message)
		assert.Equal(t, before, store.Snapshot())
	}
}

func TestDeleteCancelledCallerStillApplies(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{})}
	store := storeWith("1", "2")
	d := NewDelete(repo, store)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	st, err := d.Run(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PhaseInProgress, st.Phase)

	close(repo.release)
	assert.Eventually(t, func() bool { return len(store.Snapshot().Summaries) == 1 }, time.Second, time.Millisecond)
}

// --- State machine ---

func TestResetAndOnChange(t *testing.T) {
	var phases []Phase
	d := NewDelete(&fakeRepo{}, storeWith("1"), WithOnChange(func(st State) { phases = append(phases, st.Phase) }))

	assert.Equal(t, PhaseIdle, d.State().Phase)
	_, err := d.Run(context.Background(), "1")
	require.NoError(t, err)
	d.Reset()
	assert.Equal(t, PhaseIdle, d.State().Phase)

	assert.Equal(t, []Phase{PhaseInProgress, PhaseSucceeded, PhaseIdle}, phases)
}

func TestResetWhileInProgressIsIgnored(t *testing.T) {
	repo := &fakeRepo{release: make(chan struct{})}
	s := NewScan(repo, storeWith())
	ch, err := s.Start(context.Background())
	require.NoError(t, err)

	s.Reset()
	assert.Equal(t, PhaseInProgress, s.State().Phase)

	close(repo.release)
	<-ch
}
