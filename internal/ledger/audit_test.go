package ledger

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type captureLedger struct {
	mu       sync.Mutex
	activity []ActivityRecord
}

func (c *captureLedger) AppendSales(context.Context, []SalesRecord) error { return nil }

func (c *captureLedger) AppendActivity(_ context.Context, rec ActivityRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = append(c.activity, rec)
	return nil
}

func (c *captureLedger) RecentSales(context.Context, int) ([]SalesRow, error) { return nil, nil }

func (c *captureLedger) RecentActivity(context.Context, int) ([]ActivityRow, error) {
	return nil, nil
}

func (c *captureLedger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.activity)
}

func TestAuditWriterFlushesOnShutdown(t *testing.T) {
	cl := &captureLedger{}
	w := NewAuditWriter(cl, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 20; i++ {
		w.Record(ActivityRecord{Username: "onkasa", Action: "KULLANICI_GIRIS"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("audit writer did not shut down")
	}
	if cl.count() != 20 {
		t.Fatalf("wrote %d entries, want 20", cl.count())
	}
}

func TestAuditRecordNeverBlocks(t *testing.T) {
	cl := &captureLedger{}
	w := NewAuditWriter(cl, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// No Run goroutine: the queue fills up and further entries must be
	// dropped, not block the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			w.Record(ActivityRecord{Action: "SIPARIS_URUN_EKLENDI"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}

func TestAuditRecordStampsTime(t *testing.T) {
	cl := &captureLedger{}
	w := NewAuditWriter(cl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.Record(ActivityRecord{Action: "KULLANICI_CIKIS"})

	rec := <-w.queue
	if rec.At.IsZero() {
		t.Fatal("missing timestamp not filled in")
	}
}
