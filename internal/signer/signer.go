// Package signer abstracts the authority that turns claim digests into
// voucher signatures. The concrete backend (remote custody service, local
// dev key) is swappable without touching issuance logic.
package signer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrSignerUnavailable means the signing identity could not be located
	// or reached. Operational fault, surfaced as a 5xx; never retried here.
	ErrSignerUnavailable = errors.New("signer: signing service unavailable")

	// ErrSigningFailed means the signing identity was reachable but the
	// sign step itself failed. Retry policy belongs to the caller.
	ErrSigningFailed = errors.New("signer: signing failed")
)

// Signer signs 32-byte claim digests on behalf of a single address.
//
// Sign applies the EIP-191 personal-message prefix before signing, so the
// returned 65-byte signature recovers to Address() against the prefixed
// digest. Signatures are never cached here and a failed call is never
// retried internally; callers own timeouts via ctx.
type Signer interface {
	Address() common.Address
	Sign(ctx context.Context, digest common.Hash) ([]byte, error)
}
