package services

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rxtech-lab/dropper-engine/internal/dropper"
	"github.com/rxtech-lab/dropper-engine/internal/signer"
)

// Voucher is the bundle a claimant presents on-chain to withdraw their
// entitlement. The on-chain verifier recomputes the digest from the same
// tuple and recovers the signer address from Signature.
type Voucher struct {
	Claimant      string `json:"claimant"`
	Amount        string `json:"amount"`
	ClaimID       int64  `json:"claim_id"`
	BlockDeadline int64  `json:"block_deadline"`
	Signature     string `json:"signature"`
}

// VoucherService composes the registry lookup, the message hasher and the
// signer into the issuance path.
type VoucherService interface {
	IssueVoucher(ctx context.Context, dropperClaimID, address string) (*Voucher, error)
	IssueBatch(ctx context.Context, address, blockchain string, limit, offset int) ([]*Voucher, error)
}

type voucherService struct {
	claims    ClaimService
	claimants ClaimantService
	signer    signer.Signer
}

func NewVoucherService(claims ClaimService, claimants ClaimantService, sig signer.Signer) VoucherService {
	return &voucherService{claims: claims, claimants: claimants, signer: sig}
}

// IssueVoucher is a pure read-then-sign path: no claim or claimant state is
// mutated before the signature exists, so a cancelled or failed call can
// always be retried from scratch. Issuing twice for the same (claim, address)
// is safe and yields an equally valid voucher.
func (s *voucherService) IssueVoucher(ctx context.Context, dropperClaimID, address string) (*Voucher, error) {
	claim, err := s.claims.GetClaim(dropperClaimID)
	if err != nil {
		return nil, err
	}

	claimant, err := s.claimants.GetClaimant(dropperClaimID, address)
	if err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(claimant.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("%w: stored amount %q", ErrInvalidAmount, claimant.Amount)
	}

	var claimID, blockDeadline *big.Int
	if claim.ClaimID != nil {
		claimID = big.NewInt(*claim.ClaimID)
	}
	if claim.ClaimBlockDeadline != nil {
		blockDeadline = big.NewInt(*claim.ClaimBlockDeadline)
	}

	digest, err := dropper.ClaimMessageHash(claimID, claimant.Address, blockDeadline, amount)
	if err != nil {
		return nil, err
	}

	sig, err := s.signer.Sign(ctx, digest)
	if err != nil {
		return nil, err
	}
	signature := hexutil.Encode(sig)

	// Cache the signature for audit. The voucher is already valid at this
	// point, so a cache write failure must not fail issuance.
	if err := s.claimants.CacheSignature(claimant.ID, signature); err != nil {
		log.Printf("failed to cache signature for claimant %s: %v", claimant.ID, err)
	}

	return &Voucher{
		Claimant:      claimant.Address,
		Amount:        claimant.Amount,
		ClaimID:       *claim.ClaimID,
		BlockDeadline: *claim.ClaimBlockDeadline,
		Signature:     signature,
	}, nil
}

// IssueBatch signs one voucher per active claim the address is entitled to.
func (s *voucherService) IssueBatch(ctx context.Context, address, blockchain string, limit, offset int) ([]*Voucher, error) {
	entitlements, err := s.claimants.ListEntitlements(address, blockchain, limit, offset)
	if err != nil {
		return nil, err
	}

	vouchers := make([]*Voucher, 0, len(entitlements))
	for _, entitlement := range entitlements {
		voucher, err := s.IssueVoucher(ctx, entitlement.DropperClaimID, entitlement.Address)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, voucher)
	}
	return vouchers, nil
}
