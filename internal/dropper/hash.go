// Package dropper computes the claim message digest that the deployed
// Dropper contract recomputes on-chain before releasing tokens. The encoding
// here must match the verifier byte for byte.
package dropper

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrIncompleteClaim is returned when the claim tuple is missing its
	// on-chain claim id or block deadline. A claim without either has not
	// been assigned a slot on-chain yet and nothing can be signed for it.
	ErrIncompleteClaim = errors.New("dropper: claim id and block deadline are required")

	// ErrInvalidAddress is returned for a claimant address that is not a
	// well-formed 160-bit hex address.
	ErrInvalidAddress = errors.New("dropper: invalid claimant address")

	// ErrInvalidAmount is returned for a nil, negative or >256-bit amount.
	ErrInvalidAmount = errors.New("dropper: invalid amount")
)

// uint256Bound is 2^256, the exclusive upper bound for packed uint256 fields.
var uint256Bound = new(big.Int).Lsh(big.NewInt(1), 256)

// ClaimMessageHash returns the keccak256 digest of the tightly packed claim
// tuple:
//
//	uint256(claimID) || address(claimant) || uint256(blockDeadline) || uint256(amount)
//
// Every field occupies a fixed width, so adjacent fields can never be
// confused regardless of their values. The function is pure: identical
// inputs always yield identical digests.
func ClaimMessageHash(claimID *big.Int, address string, blockDeadline *big.Int, amount *big.Int) (common.Hash, error) {
	if claimID == nil || blockDeadline == nil {
		return common.Hash{}, ErrIncompleteClaim
	}
	if claimID.Sign() < 0 || claimID.Cmp(uint256Bound) >= 0 {
		return common.Hash{}, ErrIncompleteClaim
	}
	if blockDeadline.Sign() < 0 || blockDeadline.Cmp(uint256Bound) >= 0 {
		return common.Hash{}, ErrIncompleteClaim
	}
	if amount == nil || amount.Sign() < 0 || amount.Cmp(uint256Bound) >= 0 {
		return common.Hash{}, ErrInvalidAmount
	}
	if !common.IsHexAddress(address) {
		return common.Hash{}, ErrInvalidAddress
	}
	claimant := common.HexToAddress(address)

	packed := make([]byte, 0, 32+common.AddressLength+32+32)
	packed = append(packed, common.LeftPadBytes(claimID.Bytes(), 32)...)
	packed = append(packed, claimant.Bytes()...)
	packed = append(packed, common.LeftPadBytes(blockDeadline.Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(amount.Bytes(), 32)...)

	return crypto.Keccak256Hash(packed), nil
}

// SignableHash applies the EIP-191 personal-message prefix to a claim digest.
// The on-chain verifier recovers the signer address against this value.
func SignableHash(digest common.Hash) []byte {
	return accounts.TextHash(digest.Bytes())
}
