package dropper

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClaimant = "0xBBB52AB2a456b468b9C5A1B1c1c0Bfd61fd2BBB2"

func TestClaimMessageHashDeterministic(t *testing.T) {
	first, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)

	second, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClaimMessageHashMatchesPackedEncoding(t *testing.T) {
	digest, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)

	packed := make([]byte, 0, 116)
	packed = append(packed, common.LeftPadBytes(big.NewInt(7).Bytes(), 32)...)
	packed = append(packed, common.HexToAddress(testClaimant).Bytes()...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(1000).Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(500).Bytes(), 32)...)

	assert.Equal(t, crypto.Keccak256Hash(packed), digest)
}

func TestClaimMessageHashEveryFieldMatters(t *testing.T) {
	base, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)

	changedClaim, err := ClaimMessageHash(big.NewInt(8), testClaimant, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)
	assert.NotEqual(t, base, changedClaim)

	changedAddress, err := ClaimMessageHash(big.NewInt(7), "0x00000000000000000000000000000000DeaDBeef", big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)
	assert.NotEqual(t, base, changedAddress)

	changedDeadline, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1001), big.NewInt(500))
	require.NoError(t, err)
	assert.NotEqual(t, base, changedDeadline)

	changedAmount, err := ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(501))
	require.NoError(t, err)
	assert.NotEqual(t, base, changedAmount)
}

func TestClaimMessageHashNoFieldBleed(t *testing.T) {
	// claim id 0x01 with amount 0x0102... must not collide with claim id
	// 0x0102 shifted across the field boundary. Fixed field widths make
	// these distinct by construction; pin that down.
	a, err := ClaimMessageHash(big.NewInt(0x01), testClaimant, big.NewInt(1), big.NewInt(0x0102))
	require.NoError(t, err)

	b, err := ClaimMessageHash(big.NewInt(0x0102), testClaimant, big.NewInt(1), big.NewInt(0x01))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestClaimMessageHashLargeAmount(t *testing.T) {
	// 10^30 wei-scale entitlements exceed 64 bits and must hash cleanly.
	amount, ok := new(big.Int).SetString("1000000000000000000000000000000", 10)
	require.True(t, ok)

	_, err := ClaimMessageHash(big.NewInt(1), testClaimant, big.NewInt(1), amount)
	assert.NoError(t, err)
}

func TestClaimMessageHashValidation(t *testing.T) {
	_, err := ClaimMessageHash(nil, testClaimant, big.NewInt(1000), big.NewInt(500))
	assert.ErrorIs(t, err, ErrIncompleteClaim)

	_, err = ClaimMessageHash(big.NewInt(7), testClaimant, nil, big.NewInt(500))
	assert.ErrorIs(t, err, ErrIncompleteClaim)

	_, err = ClaimMessageHash(big.NewInt(7), "not-an-address", big.NewInt(1000), big.NewInt(500))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ClaimMessageHash(big.NewInt(7), "0xBBB", big.NewInt(1000), big.NewInt(500))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ClaimMessageHash(big.NewInt(7), testClaimant, big.NewInt(1000), big.NewInt(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
