package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rxtech-lab/dropper-engine/internal/dropper"
)

// LocalSigner holds a secp256k1 key in process. Intended for development and
// tests; production deployments should use RemoteSigner so the key never
// enters this process.
type LocalSigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewLocalSigner(key *ecdsa.PrivateKey) (*LocalSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrSignerUnavailable)
	}
	return &LocalSigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// NewLocalSignerFromHex parses a hex-encoded private key, with or without the
// 0x prefix.
func NewLocalSignerFromHex(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	return NewLocalSigner(key)
}

func (s *LocalSigner) Address() common.Address { return s.addr }

func (s *LocalSigner) Sign(_ context.Context, digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(dropper.SignableHash(digest), s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	// Recovery id to the 27/28 convention ecrecover expects.
	sig[64] += 27
	return sig, nil
}
