package utils

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned for input that cannot be normalized to a
// 160-bit Ethereum address.
var ErrInvalidAddress = errors.New("invalid ethereum address")

// NormalizeAddress converts an address to its EIP-55 checksummed form, the
// canonical representation persisted and compared everywhere in this service.
// Malformed input is rejected, never truncated or padded.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}
