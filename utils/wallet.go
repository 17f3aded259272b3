package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrBadSignature  = errors.New("signature does not match address")
	ErrStaleMessage  = errors.New("sign-in message expired")
	ErrBadMessage    = errors.New("malformed sign-in message")
	ErrInvalidWallet = errors.New("invalid wallet address")
)

const signInPrefix = "Sign in to Nexura"

// SignInWindow bounds how old a signed sign-in message may be
const SignInWindow = 5 * time.Minute

// SignInMessage builds the text a wallet signs with personal_sign
func SignInMessage(address string, issuedAt time.Time) string {
	return fmt.Sprintf("%s\nAddress: %s\nIssued At: %s", signInPrefix, address, issuedAt.UTC().Format(time.RFC3339))
}

// NormalizeWallet lowercases a hex address after validating it
func NormalizeWallet(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidWallet
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

func parseSignInMessage(msg string) (string, time.Time, error) {
	lines := strings.Split(msg, "\n")
	if len(lines) != 3 || lines[0] != signInPrefix {
		return "", time.Time{}, ErrBadMessage
	}
	addr, ok := strings.CutPrefix(lines[1], "Address: ")
	if !ok {
		return "", time.Time{}, ErrBadMessage
	}
	issued, ok := strings.CutPrefix(lines[2], "Issued At: ")
	if !ok {
		return "", time.Time{}, ErrBadMessage
	}
	at, err := time.Parse(time.RFC3339, issued)
	if err != nil {
		return "", time.Time{}, ErrBadMessage
	}
	return addr, at, nil
}

// RecoverAddress returns the signer of an EIP-191 personal message
func RecoverAddress(signatureHex string, msg []byte) (common.Address, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrBadSignature
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}
	recovered, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	if err != nil {
		return common.Address{}, ErrBadSignature
	}
	return crypto.PubkeyToAddress(*recovered), nil
}

// VerifySignIn checks that message was signed by address within the sign-in
// window and returns the normalized address.
func VerifySignIn(address, signatureHex, message string, now time.Time) (string, error) {
	wallet, err := NormalizeWallet(address)
	if err != nil {
		return "", err
	}
	msgAddr, issuedAt, err := parseSignInMessage(message)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(msgAddr, wallet) {
		return "", ErrBadMessage
	}
	if issuedAt.After(now.Add(time.Minute)) || now.Sub(issuedAt) > SignInWindow {
		return "", ErrStaleMessage
	}
	signer, err := RecoverAddress(signatureHex, []byte(message))
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(signer.Hex(), wallet) {
		return "", ErrBadSignature
	}
	return wallet, nil
}
