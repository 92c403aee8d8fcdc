package services

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxtech-lab/dropper-engine/internal/models"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

// Rejection reasons reported per entry by AddClaimants.
const (
	RejectionInvalidAddress    = "InvalidAddress"
	RejectionInvalidAmount     = "InvalidAmount"
	RejectionDuplicateClaimant = "DuplicateClaimant"
)

// ClaimantService owns the claimant ledger: each address has exactly one
// entitlement row per claim.
type ClaimantService interface {
	AddClaimants(args AddClaimantsArgs) (*AddClaimantsResult, error)
	RemoveClaimants(claimID string, addresses []string) ([]string, error)
	GetClaimant(claimID, address string) (*models.DropperClaimant, error)
	ListClaimants(claimID string, limit, offset int) ([]models.DropperClaimant, error)
	ListEntitlements(address, blockchain string, limit, offset int) ([]models.DropperClaimant, error)
	CacheSignature(claimantID, signature string) error
}

type ClaimantEntry struct {
	Address string `json:"address" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

type AddClaimantsArgs struct {
	DropperClaimID string          `json:"dropper_claim_id" validate:"required"`
	Claimants      []ClaimantEntry `json:"claimants" validate:"required,dive"`
	AddedBy        string          `json:"added_by" validate:"required"`
}

type RejectedClaimant struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// AddClaimantsResult enumerates every entry's fate: either a stored row in
// Added or an entry in Rejected with its reason. Nothing is summarized away.
type AddClaimantsResult struct {
	Added    []models.DropperClaimant `json:"added"`
	Rejected []RejectedClaimant       `json:"rejected"`
}

type claimantService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewClaimantService(db *gorm.DB) ClaimantService {
	return &claimantService{db: db, validator: validator.New()}
}

// AddClaimants bulk-inserts entitlement rows. Each entry is validated and
// inserted independently — one bad entry never aborts the batch. Duplicate
// detection rides on the (claim, address) unique index so two concurrent
// batches cannot both insert the same pair.
func (s *claimantService) AddClaimants(args AddClaimantsArgs) (*AddClaimantsResult, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}

	var claim models.DropperClaim
	err := s.db.Where("id = ?", args.DropperClaimID).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, args.DropperClaimID)
	}
	if err != nil {
		return nil, err
	}

	result := &AddClaimantsResult{
		Added:    []models.DropperClaimant{},
		Rejected: []RejectedClaimant{},
	}
	for _, entry := range args.Claimants {
		address, err := utils.NormalizeAddress(entry.Address)
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedClaimant{
				Address: entry.Address,
				Reason:  RejectionInvalidAddress,
			})
			continue
		}

		amount, ok := parseAmount(entry.Amount)
		if !ok {
			result.Rejected = append(result.Rejected, RejectedClaimant{
				Address: address,
				Reason:  RejectionInvalidAmount,
			})
			continue
		}

		claimant := models.DropperClaimant{
			ID:             uuid.New().String(),
			DropperClaimID: claim.ID,
			Address:        address,
			Amount:         amount.String(),
			RawAmount:      entry.Amount,
			AddedBy:        args.AddedBy,
		}
		err = s.db.Create(&claimant).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			result.Rejected = append(result.Rejected, RejectedClaimant{
				Address: address,
				Reason:  RejectionDuplicateClaimant,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Added = append(result.Added, claimant)
	}
	return result, nil
}

// RemoveClaimants deletes the given addresses from a claim and returns the
// addresses actually removed. Absent addresses are simply not in the return
// value; removal is idempotent. The delete reports the removed rows via
// RETURNING, so an address deleted by a concurrent call is never reported
// twice.
func (s *claimantService) RemoveClaimants(claimID string, addresses []string) ([]string, error) {
	normalized := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if canonical, err := utils.NormalizeAddress(address); err == nil {
			normalized = append(normalized, canonical)
		}
	}
	if len(normalized) == 0 {
		return []string{}, nil
	}

	var deleted []models.DropperClaimant
	err := s.db.
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "address"}}}).
		Where("dropper_claim_id = ? AND address IN ?", claimID, normalized).
		Delete(&deleted).Error
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(deleted))
	for _, row := range deleted {
		removed = append(removed, row.Address)
	}
	return removed, nil
}

// GetClaimant returns the single entitlement row for (claim, address).
// Finding more than one row means the unique index has been violated; that is
// reported as corruption, not resolved silently.
func (s *claimantService) GetClaimant(claimID, address string) (*models.DropperClaimant, error) {
	normalized, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var claimants []models.DropperClaimant
	err = s.db.
		Where("dropper_claim_id = ? AND address = ?", claimID, normalized).
		Limit(2).Find(&claimants).Error
	if err != nil {
		return nil, err
	}
	switch len(claimants) {
	case 0:
		return nil, fmt.Errorf("%w: %s under claim %s", ErrClaimantNotFound, normalized, claimID)
	case 1:
		return &claimants[0], nil
	default:
		return nil, fmt.Errorf("%w: %s under claim %s", ErrClaimantAmbiguous, normalized, claimID)
	}
}

func (s *claimantService) ListClaimants(claimID string, limit, offset int) ([]models.DropperClaimant, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	var claimants []models.DropperClaimant
	err = s.db.
		Where("dropper_claim_id = ?", claimID).
		Order("created_at ASC").Limit(limit).Offset(offset).
		Find(&claimants).Error
	return claimants, err
}

// ListEntitlements returns an address's entitlement rows across all active,
// fully registered claims, optionally filtered by blockchain. Claims still
// missing an on-chain slot or deadline are excluded since no voucher can be
// issued against them.
func (s *claimantService) ListEntitlements(address, blockchain string, limit, offset int) ([]models.DropperClaimant, error) {
	normalized, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	limit, offset, err = normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.DropperClaimant{}).
		Joins("JOIN dropper_claims ON dropper_claims.id = dropper_claimants.dropper_claim_id").
		Where("dropper_claimants.address = ?", normalized).
		Where("dropper_claims.active = ?", true).
		Where("dropper_claims.claim_id IS NOT NULL AND dropper_claims.claim_block_deadline IS NOT NULL")
	if blockchain != "" {
		query = query.
			Joins("JOIN dropper_contracts ON dropper_contracts.id = dropper_claims.dropper_contract_id").
			Where("dropper_contracts.blockchain = ?", blockchain)
	}

	var claimants []models.DropperClaimant
	err = query.
		Order("dropper_claimants.created_at ASC").Limit(limit).Offset(offset).
		Find(&claimants).Error
	return claimants, err
}

// CacheSignature stores an issued voucher signature on the claimant row.
func (s *claimantService) CacheSignature(claimantID, signature string) error {
	return s.db.Model(&models.DropperClaimant{}).
		Where("id = ?", claimantID).
		Update("signature", signature).Error
}

// parseAmount accepts a base-10 non-negative integer of any width.
func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, false
	}
	return amount, true
}
