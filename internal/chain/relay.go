package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"nexura/models"
)

// RelayABI covers the four authorizations the platform relays
const RelayABI = `[
	{"type":"function","name":"joinCampaign","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[]},
	{"type":"function","name":"AllowCampaignRewardClaim","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[]},
	{"type":"function","name":"allowUserToMint","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"level","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"AllowReferralRewardClaim","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[]}
]`

type ReceiptStatus int

const (
	ReceiptPending ReceiptStatus = iota
	ReceiptSuccess
	ReceiptReverted
)

// Submitter sends relay actions on chain and reports their receipts
type Submitter interface {
	Submit(ctx context.Context, a models.RelayAction) (string, error)
	Receipt(ctx context.Context, txHash string) (ReceiptStatus, error)
}

// callArgs maps an action onto its contract call arguments
func callArgs(a models.RelayAction) ([]interface{}, error) {
	if !common.IsHexAddress(a.Args.Wallet) {
		return nil, fmt.Errorf("invalid wallet %q", a.Args.Wallet)
	}
	wallet := common.HexToAddress(a.Args.Wallet)
	switch a.Action {
	case models.ActionJoinCampaign, models.ActionAllowCampaignClaim, models.ActionAllowReferralClaim:
		return []interface{}{wallet}, nil
	case models.ActionAllowMint:
		return []interface{}{wallet, big.NewInt(int64(a.Args.Level))}, nil
	}
	return nil, fmt.Errorf("unknown relay action %q", a.Action)
}

// EthRelay signs every call with the single server key
type EthRelay struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
	abi     abi.ABI

	// one submission at a time so pending nonces are not reused
	mu sync.Mutex
}

// NewEthRelay dials rpcURL. A zero chainID is read from the node.
func NewEthRelay(ctx context.Context, rpcURL, privateKeyHex string, chainID int64) (*EthRelay, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse relay key: %w", err)
	}
	parsedABI, err := abi.JSON(strings.NewReader(RelayABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay ABI: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	id := big.NewInt(chainID)
	if chainID == 0 {
		if id, err = client.ChainID(dialCtx); err != nil {
			client.Close()
			return nil, fmt.Errorf("read chain id: %w", err)
		}
	}
	return &EthRelay{client: client, key: key, chainID: id, abi: parsedABI}, nil
}

// Address is the relayer account
func (r *EthRelay) Address() common.Address {
	return crypto.PubkeyToAddress(r.key.PublicKey)
}

func (r *EthRelay) Submit(ctx context.Context, a models.RelayAction) (string, error) {
	args, err := callArgs(a)
	if err != nil {
		return "", err
	}
	if !common.IsHexAddress(a.Contract) {
		return "", fmt.Errorf("invalid contract %q", a.Contract)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	auth, err := bind.NewKeyedTransactorWithChainID(r.key, r.chainID)
	if err != nil {
		return "", fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx

	contract := bind.NewBoundContract(common.HexToAddress(a.Contract), r.abi, r.client, r.client, r.client)
	tx, err := contract.Transact(auth, a.Action, args...)
	if err != nil {
		return "", fmt.Errorf("%s transaction failed: %w", a.Action, err)
	}
	return tx.Hash().Hex(), nil
}

func (r *EthRelay) Receipt(ctx context.Context, txHash string) (ReceiptStatus, error) {
	receipt, err := r.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return ReceiptPending, nil
	}
	if err != nil {
		return ReceiptPending, err
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return ReceiptSuccess, nil
	}
	return ReceiptReverted, nil
}

func (r *EthRelay) Close() {
	r.client.Close()
}
