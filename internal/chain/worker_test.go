package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexura/models"
	"nexura/store"
)

type fakeSubmitter struct {
	submitErr error
	receipt   ReceiptStatus
	submitted int
}

func (f *fakeSubmitter) Submit(_ context.Context, a models.RelayAction) (string, error) {
	f.submitted++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "0xabc", nil
}

func (f *fakeSubmitter) Receipt(context.Context, string) (ReceiptStatus, error) {
	return f.receipt, nil
}

func newTestWorker(t *testing.T, sub Submitter, maxAttempts int) (*Worker, *store.Memory, *time.Time) {
	t.Helper()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	w := NewWorker(mem, sub, maxAttempts)
	w.now = func() time.Time { return now }
	return w, mem, &now
}

func enqueue(t *testing.T, mem *store.Memory, at time.Time) *models.RelayAction {
	t.Helper()
	return enqueueKey(t, mem, at, "mint:u:3")
}

func enqueueKey(t *testing.T, mem *store.Memory, at time.Time, key string) *models.RelayAction {
	t.Helper()
	a := &models.RelayAction{
		Action:        models.ActionAllowMint,
		Contract:      "0x00000000000000000000000000000000000000b1",
		Args:          models.RelayArgs{Wallet: "0x5555555555555555555555555555555555555555", Level: 3},
		DedupeKey:     key,
		Status:        models.RelayStatusPending,
		NextAttemptAt: at,
		CreatedAt:     at,
	}
	require.NoError(t, mem.EnqueueRelay(context.Background(), a))
	return a
}

func load(t *testing.T, mem *store.Memory, a *models.RelayAction) *models.RelayAction {
	t.Helper()
	got, err := mem.RelayActionByID(context.Background(), a.ID)
	require.NoError(t, err)
	return got
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Second, Backoff(0))
	assert.Equal(t, 20*time.Second, Backoff(1))
	assert.Equal(t, 40*time.Second, Backoff(2))
	assert.Equal(t, 10*time.Minute, Backoff(10))
	assert.Equal(t, 10*time.Minute, Backoff(100))
}

func TestWorkerConfirms(t *testing.T) {
	sub := &fakeSubmitter{receipt: ReceiptPending}
	w, mem, now := newTestWorker(t, sub, 3)
	a := enqueue(t, mem, *now)
	ctx := context.Background()

	w.Tick(ctx)
	got := load(t, mem, a)
	assert.Equal(t, models.RelayStatusSubmitted, got.Status)
	assert.Equal(t, "0xabc", got.TxHash)
	assert.Equal(t, 1, got.Attempts)

	assert.Equal(t, now.Add(receiptPoll), got.NextAttemptAt)

	// still mining
	*now = now.Add(receiptPoll)
	w.Tick(ctx)
	got = load(t, mem, a)
	assert.Equal(t, models.RelayStatusSubmitted, got.Status)
	assert.Equal(t, now.Add(receiptPoll), got.NextAttemptAt)

	sub.receipt = ReceiptSuccess
	*now = now.Add(receiptPoll)
	w.Tick(ctx)
	assert.Equal(t, models.RelayStatusConfirmed, load(t, mem, a).Status)
	assert.Equal(t, 1, sub.submitted)

	// confirmed actions are never picked up again
	w.Tick(ctx)
	assert.Equal(t, 1, sub.submitted)
}

func TestWorkerBacksOffThenFails(t *testing.T) {
	sub := &fakeSubmitter{submitErr: errors.New("nonce too low")}
	w, mem, now := newTestWorker(t, sub, 2)
	a := enqueue(t, mem, *now)
	ctx := context.Background()

	w.Tick(ctx)
	got := load(t, mem, a)
	assert.Equal(t, models.RelayStatusPending, got.Status)
	assert.Equal(t, "nonce too low", got.LastError)
	assert.Equal(t, now.Add(Backoff(1)), got.NextAttemptAt)

	// not due yet
	w.Tick(ctx)
	assert.Equal(t, 1, sub.submitted)

	*now = now.Add(Backoff(1))
	w.Tick(ctx)
	got = load(t, mem, a)
	assert.Equal(t, models.RelayStatusFailed, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, 2, sub.submitted)

	*now = now.Add(time.Hour)
	w.Tick(ctx)
	assert.Equal(t, 2, sub.submitted)
}

func TestWorkerResubmitsReverted(t *testing.T) {
	sub := &fakeSubmitter{receipt: ReceiptReverted}
	w, mem, now := newTestWorker(t, sub, 5)
	a := enqueue(t, mem, *now)
	ctx := context.Background()

	w.Tick(ctx)
	*now = now.Add(receiptPoll)
	w.Tick(ctx)
	got := load(t, mem, a)
	assert.Equal(t, models.RelayStatusPending, got.Status)
	assert.Equal(t, errReverted.Error(), got.LastError)
	assert.Empty(t, got.TxHash)
}

func TestWorkerResubmitsDroppedTx(t *testing.T) {
	sub := &fakeSubmitter{receipt: ReceiptPending}
	w, mem, now := newTestWorker(t, sub, 5)
	a := enqueue(t, mem, *now)
	ctx := context.Background()

	w.Tick(ctx)
	for elapsed := time.Duration(0); elapsed < receiptTimeout-receiptPoll; elapsed += receiptPoll {
		*now = now.Add(receiptPoll)
		w.Tick(ctx)
		require.Equal(t, models.RelayStatusSubmitted, load(t, mem, a).Status)
	}

	*now = now.Add(receiptPoll)
	w.Tick(ctx)
	got := load(t, mem, a)
	assert.Equal(t, models.RelayStatusPending, got.Status)
	assert.Equal(t, errDropped.Error(), got.LastError)
	assert.Empty(t, got.TxHash)
	assert.Nil(t, got.SubmittedAt)

	*now = now.Add(Backoff(1))
	w.Tick(ctx)
	got = load(t, mem, a)
	assert.Equal(t, models.RelayStatusSubmitted, got.Status)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, 2, sub.submitted)
}

func TestWorkerUnminedTxsDoNotStarveQueue(t *testing.T) {
	sub := &fakeSubmitter{receipt: ReceiptPending}
	w, mem, now := newTestWorker(t, sub, 5)
	ctx := context.Background()
	for i := 0; i < batchSize; i++ {
		enqueueKey(t, mem, *now, fmt.Sprintf("mint:u%d:2", i))
	}
	w.Tick(ctx)
	require.Equal(t, batchSize, sub.submitted)

	fresh := enqueueKey(t, mem, now.Add(time.Second), "join:c:u")
	for i := 0; i < 3; i++ {
		*now = now.Add(receiptPoll)
		w.Tick(ctx)
	}
	got := load(t, mem, fresh)
	assert.Equal(t, models.RelayStatusSubmitted, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestLogRelayRejectsBadWallet(t *testing.T) {
	r := NewLogRelay()
	_, err := r.Submit(context.Background(), models.RelayAction{Action: models.ActionJoinCampaign, Args: models.RelayArgs{Wallet: "nope"}})
	require.Error(t, err)

	hash, err := r.Submit(context.Background(), models.RelayAction{
		Action:    models.ActionJoinCampaign,
		Args:      models.RelayArgs{Wallet: "0x5555555555555555555555555555555555555555"},
		DedupeKey: "join:c:u",
	})
	require.NoError(t, err)
	assert.Len(t, hash, 66)
	assert.Len(t, r.Sent(), 1)
}

func TestCallArgs(t *testing.T) {
	args, err := callArgs(models.RelayAction{Action: models.ActionAllowMint, Args: models.RelayArgs{Wallet: "0x5555555555555555555555555555555555555555", Level: 4}})
	require.NoError(t, err)
	require.Len(t, args, 2)

	_, err = callArgs(models.RelayAction{Action: "burn", Args: models.RelayArgs{Wallet: "0x5555555555555555555555555555555555555555"}})
	require.Error(t, err)
}
