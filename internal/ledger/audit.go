package ledger

import (
	"context"
	"log/slog"
	"time"
)

// AuditWriter decouples command handling from audit durability: Record is a
// one-way, never-blocking send, and a background goroutine drains the
// queue into the ledger. A full queue drops the entry with a warning;
// the audit trail is best effort by contract.
type AuditWriter struct {
	ledger Ledger
	log    *slog.Logger
	queue  chan ActivityRecord
	done   chan struct{}
}

func NewAuditWriter(l Ledger, log *slog.Logger) *AuditWriter {
	return &AuditWriter{
		ledger: l,
		log:    log,
		queue:  make(chan ActivityRecord, 256),
		done:   make(chan struct{}),
	}
}

// Record enqueues an audit entry. Callers never wait on the write.
func (w *AuditWriter) Record(rec ActivityRecord) {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	select {
	case w.queue <- rec:
	default:
		w.log.Warn("audit queue full, entry dropped", "action", rec.Action, "user", rec.Username)
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (w *AuditWriter) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case rec := <-w.queue:
			w.write(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-w.queue:
					w.write(rec)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has flushed and returned.
func (w *AuditWriter) Done() <-chan struct{} { return w.done }

func (w *AuditWriter) write(rec ActivityRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.ledger.AppendActivity(ctx, rec); err != nil {
		w.log.Warn("audit write failed", "action", rec.Action, "user", rec.Username, "err", err)
	}
}
