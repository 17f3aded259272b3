package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexura/internal/metrics"
	"nexura/models"
	reporter "nexura/pkg/errors"
	"nexura/pkg/log"
	"nexura/store"
)

const (
	baseBackoff = 10 * time.Second
	maxBackoff  = 10 * time.Minute
	batchSize   = 50

	// receiptPoll spaces out receipt checks so submitted rows rotate
	// with pending ones in the due queue
	receiptPoll = 15 * time.Second
	// receiptTimeout is how long a tx may go unmined before it is
	// treated as dropped and submitted again
	receiptTimeout = 10 * time.Minute
)

var (
	errReverted = errors.New("transaction reverted")
	errDropped  = errors.New("no receipt before deadline")
)

// Worker drains the relay outbox: it submits pending actions and follows
// submitted ones until their receipt settles.
type Worker struct {
	store       store.OutboxStore
	relay       Submitter
	maxAttempts int
	now         func() time.Time
}

func NewWorker(st store.OutboxStore, relay Submitter, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Worker{store: st, relay: relay, maxAttempts: maxAttempts, now: time.Now}
}

// Backoff is the delay before retry number attempts
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		return baseBackoff
	}
	d := baseBackoff
	for i := 0; i < attempts && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// Tick processes one batch of due actions
func (w *Worker) Tick(ctx context.Context) {
	actions, err := w.store.DueRelayActions(ctx, w.now(), batchSize)
	if err != nil {
		log.Errorf("[relay] load due actions: %v", err)
		return
	}
	for i := range actions {
		if ctx.Err() != nil {
			return
		}
		a := &actions[i]
		switch a.Status {
		case models.RelayStatusPending:
			w.submit(ctx, a)
		case models.RelayStatusSubmitted:
			w.check(ctx, a)
		}
	}
}

func (w *Worker) submit(ctx context.Context, a *models.RelayAction) {
	a.Attempts++
	txHash, err := w.relay.Submit(ctx, *a)
	if err != nil {
		w.retry(ctx, a, err)
		return
	}
	now := w.now()
	a.Status = models.RelayStatusSubmitted
	a.TxHash = txHash
	a.LastError = ""
	a.SubmittedAt = &now
	a.NextAttemptAt = now.Add(receiptPoll)
	w.save(ctx, a)
}

func (w *Worker) check(ctx context.Context, a *models.RelayAction) {
	status, err := w.relay.Receipt(ctx, a.TxHash)
	if err != nil {
		log.Warnf("[relay] receipt for %s: %v", a.TxHash, err)
		status = ReceiptPending
	}
	switch status {
	case ReceiptPending:
		now := w.now()
		if a.SubmittedAt == nil {
			a.SubmittedAt = &now
		}
		if now.Sub(*a.SubmittedAt) >= receiptTimeout {
			w.retry(ctx, a, errDropped)
			return
		}
		a.NextAttemptAt = now.Add(receiptPoll)
		w.save(ctx, a)
	case ReceiptSuccess:
		a.Status = models.RelayStatusConfirmed
		a.LastError = ""
		w.save(ctx, a)
	case ReceiptReverted:
		w.retry(ctx, a, errReverted)
	}
}

// retry schedules another attempt or gives up after maxAttempts
func (w *Worker) retry(ctx context.Context, a *models.RelayAction, cause error) {
	a.LastError = cause.Error()
	a.TxHash = ""
	a.SubmittedAt = nil
	if a.Attempts >= w.maxAttempts {
		a.Status = models.RelayStatusFailed
		reporter.Report(fmt.Errorf("relay %s for %s failed after %d attempts: %w", a.Action, a.Args.Wallet, a.Attempts, cause))
	} else {
		a.Status = models.RelayStatusPending
		a.NextAttemptAt = w.now().Add(Backoff(a.Attempts))
	}
	log.Warnf("[relay] %s %s attempt %d: %v", a.Action, a.DedupeKey, a.Attempts, cause)
	w.save(ctx, a)
}

func (w *Worker) save(ctx context.Context, a *models.RelayAction) {
	a.UpdatedAt = w.now()
	if err := w.store.UpdateRelayAction(ctx, a); err != nil {
		log.Errorf("[relay] save %s: %v", a.ID.Hex(), err)
		return
	}
	metrics.Relay(a.Action, a.Status)
}
