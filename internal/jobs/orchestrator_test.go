package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"papercast/internal/audio"
	"papercast/internal/providers"
	"papercast/internal/script"
	"papercast/internal/segment"
)

type fakeSegmenter struct {
	calls   atomic.Int64
	err     error
	blockCh chan struct{} // when non-nil, Segment waits on it
}

func (f *fakeSegmenter) Segment(ctx context.Context, path, jobID string) (*segment.ParsedDocument, error) {
	f.calls.Add(1)
	if f.blockCh != nil {
		<-f.blockCh
	}
	if f.err != nil {
		return nil, f.err
	}
	return &segment.ParsedDocument{JobID: jobID, Filename: path}, nil
}

type fakeGenerator struct {
	err error
}

func (f *fakeGenerator) GenerateScript(ctx context.Context, doc *segment.ParsedDocument) (*script.PodcastScript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &script.PodcastScript{
		JobID: doc.JobID,
		Dialogue: []script.DialogueLine{
			{Host: "A", Text: "one two three four five", ChapterID: 1},
		},
		TotalEstimatedDurationSec: 2,
	}, nil
}

type fakeSynthesizer struct{ err error }

func (f *fakeSynthesizer) Synthesize(ctx context.Context, scriptText, voicePair string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio"), nil
}

type fakeMixer struct{}

func (f *fakeMixer) Mix(ctx context.Context, scriptText string, synthesized []byte, jobID string) (*audio.MixResult, error) {
	return &audio.MixResult{
		AudioPath:    "/out/" + jobID + ".mp3",
		CaptionsPath: "/out/" + jobID + ".vtt",
		Chapters: []audio.TimedChapter{
			{Title: "Intro", StartSec: 0, EndSec: 10},
			{Title: "Outro", StartSec: 10, EndSec: 25.5},
		},
	}, nil
}

// recordingStore captures every progress value written through it.
type recordingStore struct {
	Store
	mu   sync.Mutex
	pcts []int
}

func (s *recordingStore) Put(rec Record) {
	s.mu.Lock()
	s.pcts = append(s.pcts, rec.ProgressPct)
	s.mu.Unlock()
	s.Store.Put(rec)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForTerminal(t *testing.T, o *Orchestrator, jobID string) Record {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			rec, _ := o.Poll(jobID)
			t.Fatalf("job %s never reached a terminal state, last: %+v", jobID, rec)
		case <-time.After(5 * time.Millisecond):
		}
		if rec, ok := o.Poll(jobID); ok && rec.Status.Terminal() {
			return rec
		}
	}
}

func TestOrchestrator(t *testing.T) {
	t.Run("full pipeline reaches done with mixed result", func(t *testing.T) {
		o := NewOrchestrator(NewMemoryStore(), &fakeSegmenter{}, &fakeGenerator{}, &fakeSynthesizer{}, &fakeMixer{}, testLogger())

		rec, err := o.Enqueue(context.Background(), Request{JobID: "job-1", PDFPath: "/up/job-1.pdf", VoicePair: "FM"})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if rec.Status != StatusPending || rec.ProgressPct != 0 {
			t.Errorf("initial record = %+v", rec)
		}

		final := waitForTerminal(t, o, "job-1")
		if final.Status != StatusDone || final.ProgressPct != 100 {
			t.Fatalf("final record = %+v", final)
		}
		if final.Result == nil || final.Result.DurationSec != 25.5 {
			t.Errorf("result = %+v", final.Result)
		}
		if final.Script == nil || len(final.Script.Dialogue) != 1 {
			t.Errorf("script missing from final record")
		}
	})

	t.Run("double enqueue runs pipeline once", func(t *testing.T) {
		seg := &fakeSegmenter{blockCh: make(chan struct{})}
		o := NewOrchestrator(NewMemoryStore(), seg, &fakeGenerator{}, nil, nil, testLogger())

		first, err := o.Enqueue(context.Background(), Request{JobID: "job-2", PDFPath: "p"})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		second, err := o.Enqueue(context.Background(), Request{JobID: "job-2", PDFPath: "p"})
		if err != nil {
			t.Fatalf("second Enqueue: %v", err)
		}
		if first.JobID != second.JobID {
			t.Errorf("records disagree: %+v vs %+v", first, second)
		}
		if second.Status == StatusError {
			t.Errorf("second enqueue saw error state: %+v", second)
		}

		close(seg.blockCh)
		waitForTerminal(t, o, "job-2")
		if got := seg.calls.Load(); got != 1 {
			t.Errorf("segmenter ran %d times, want 1", got)
		}
	})

	t.Run("missing credential lands error with api key phrase", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("planning chapters: %w", providers.ErrNoAPIKey)}
		o := NewOrchestrator(NewMemoryStore(), &fakeSegmenter{}, gen, nil, nil, testLogger())

		if _, err := o.Enqueue(context.Background(), Request{JobID: "job-3", PDFPath: "p"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		final := waitForTerminal(t, o, "job-3")
		if final.Status != StatusError {
			t.Fatalf("final record = %+v", final)
		}
		if !strings.Contains(final.Message, "API key") {
			t.Errorf("message %q does not mention the API key", final.Message)
		}
	})

	t.Run("parse failure lands error", func(t *testing.T) {
		seg := &fakeSegmenter{err: &segment.ParseError{Path: "p", Err: fmt.Errorf("not a pdf")}}
		o := NewOrchestrator(NewMemoryStore(), seg, &fakeGenerator{}, nil, nil, testLogger())

		if _, err := o.Enqueue(context.Background(), Request{JobID: "job-4", PDFPath: "p"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		final := waitForTerminal(t, o, "job-4")
		if final.Status != StatusError || !strings.Contains(final.Message, "Error:") {
			t.Errorf("final record = %+v", final)
		}
	})

	t.Run("error state can be re-enqueued", func(t *testing.T) {
		seg := &fakeSegmenter{err: fmt.Errorf("transient disk failure")}
		o := NewOrchestrator(NewMemoryStore(), seg, &fakeGenerator{}, nil, nil, testLogger())

		if _, err := o.Enqueue(context.Background(), Request{JobID: "job-5", PDFPath: "p"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		waitForTerminal(t, o, "job-5")

		seg.err = nil
		rec, err := o.Enqueue(context.Background(), Request{JobID: "job-5", PDFPath: "p"})
		if err != nil {
			t.Fatalf("re-Enqueue: %v", err)
		}
		if rec.Status != StatusPending {
			t.Errorf("re-enqueue returned %+v, want fresh pending record", rec)
		}
		final := waitForTerminal(t, o, "job-5")
		if final.Status != StatusDone {
			t.Errorf("final record = %+v", final)
		}
		if got := seg.calls.Load(); got != 2 {
			t.Errorf("segmenter ran %d times, want 2", got)
		}
	})

	t.Run("nil synthesizer completes with script only", func(t *testing.T) {
		o := NewOrchestrator(NewMemoryStore(), &fakeSegmenter{}, &fakeGenerator{}, nil, nil, testLogger())

		if _, err := o.Enqueue(context.Background(), Request{JobID: "job-6", PDFPath: "p"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		final := waitForTerminal(t, o, "job-6")
		if final.Status != StatusDone {
			t.Fatalf("final record = %+v", final)
		}
		if final.Result == nil || final.Result.AudioPath != "" || final.Result.DurationSec != 2 {
			t.Errorf("result = %+v", final.Result)
		}
	})

	t.Run("progress is monotone within a successful run", func(t *testing.T) {
		store := &recordingStore{Store: NewMemoryStore()}
		o := NewOrchestrator(store, &fakeSegmenter{}, &fakeGenerator{}, &fakeSynthesizer{}, &fakeMixer{}, testLogger())

		if _, err := o.Enqueue(context.Background(), Request{JobID: "job-7", PDFPath: "p"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		waitForTerminal(t, o, "job-7")

		store.mu.Lock()
		defer store.mu.Unlock()
		for i := 1; i < len(store.pcts); i++ {
			if store.pcts[i] < store.pcts[i-1] {
				t.Fatalf("progress regressed: %v", store.pcts)
			}
		}
		if store.pcts[len(store.pcts)-1] != 100 {
			t.Errorf("final progress = %d, want 100", store.pcts[len(store.pcts)-1])
		}
	})
}

func TestMemoryStoreClaim(t *testing.T) {
	store := NewMemoryStore()

	rec, claimed := store.Claim(Record{JobID: "j", Status: StatusPending})
	if !claimed || rec.Status != StatusPending {
		t.Fatalf("first claim = %+v, %v", rec, claimed)
	}

	rec, claimed = store.Claim(Record{JobID: "j", Status: StatusPending})
	if claimed {
		t.Errorf("second claim should return existing record, got claimed=true")
	}

	store.Put(Record{JobID: "j", Status: StatusError, Message: "boom"})
	rec, claimed = store.Claim(Record{JobID: "j", Status: StatusPending})
	if !claimed || rec.Status != StatusPending {
		t.Errorf("claim after error = %+v, %v", rec, claimed)
	}
}
