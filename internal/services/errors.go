package services

import "errors"

// Sentinel errors for the claim registry and claimant ledger. Handlers map
// these onto HTTP statuses; anything unwrapped is a 500.
var (
	ErrContractNotFound    = errors.New("dropper contract not found")
	ErrClaimNotFound       = errors.New("dropper claim not found")
	ErrClaimantNotFound    = errors.New("claimant not found")
	ErrLeaderboardNotFound = errors.New("leaderboard not found")

	ErrDuplicateContract = errors.New("a contract with this blockchain and address already exists")
	ErrDuplicateClaimant = errors.New("claimant already registered for this claim")

	// ErrActiveSlotConflict: another active claim already occupies the same
	// (contract, claim id) slot.
	ErrActiveSlotConflict = errors.New("active claim already occupies this claim slot")

	// ErrClaimantAmbiguous means more than one row matched a (claim,
	// address) pair that the schema declares unique. Unreachable unless the
	// store is corrupted; reported loudly instead of picking a row.
	ErrClaimantAmbiguous = errors.New("multiple claimant rows for one claim and address")

	ErrInvalidAmount     = errors.New("amount must be a non-negative integer")
	ErrInvalidPagination = errors.New("limit and offset must be non-negative")
)
