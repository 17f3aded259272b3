package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"nexura/models"
	"nexura/pkg/log"
)

// LogRelay is the relay used when no RPC node is configured. It logs each
// call and reports every transaction as mined.
type LogRelay struct {
	mu   sync.Mutex
	sent []models.RelayAction
}

func NewLogRelay() *LogRelay {
	return &LogRelay{}
}

func (r *LogRelay) Submit(_ context.Context, a models.RelayAction) (string, error) {
	if _, err := callArgs(a); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.sent = append(r.sent, a)
	r.mu.Unlock()

	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s:%d", a.DedupeKey, a.Attempts))).Hex()
	log.Infof("[mock relay] %s(%s) on %s -> %s", a.Action, a.Args.Wallet, a.Contract, hash)
	return hash, nil
}

func (r *LogRelay) Receipt(context.Context, string) (ReceiptStatus, error) {
	return ReceiptSuccess, nil
}

// Sent returns the actions submitted so far
func (r *LogRelay) Sent() []models.RelayAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RelayAction(nil), r.sent...)
}
