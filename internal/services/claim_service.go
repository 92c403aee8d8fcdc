package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rxtech-lab/dropper-engine/internal/models"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

// maxClaimPageSize bounds list query result sizes.
const maxClaimPageSize = 100

// zeroAddress is the terminus default when a claim draws from no pool.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// ClaimService owns dropper claims and the active-slot invariant: among
// claims with a non-nil ClaimID, at most one per (contract, ClaimID) may be
// active. Drafts may share a slot freely until activation.
type ClaimService interface {
	CreateClaim(args CreateClaimArgs) (*models.DropperClaim, error)
	GetClaim(id string) (*models.DropperClaim, error)
	ActivateClaim(id string) (*models.DropperClaim, error)
	ListClaims(args ListClaimsArgs) ([]models.DropperClaim, error)
}

type CreateClaimArgs struct {
	DropperContractID  string `json:"dropper_contract_id" validate:"required"`
	Title              string `json:"title,omitempty"`
	Description        string `json:"description,omitempty"`
	ClaimID            *int64 `json:"claim_id,omitempty"`
	ClaimBlockDeadline *int64 `json:"claim_block_deadline,omitempty"`
	TerminusAddress    string `json:"terminus_address,omitempty"`
	TerminusPoolID     *int64 `json:"terminus_pool_id,omitempty"`
}

type ListClaimsArgs struct {
	ContractAddress string `json:"dropper_contract_address" validate:"required"`
	Blockchain      string `json:"blockchain" validate:"required"`
	ClaimantAddress string `json:"claimant_address,omitempty"`
	Active          *bool  `json:"active,omitempty"`
	Limit           int    `json:"limit"`
	Offset          int    `json:"offset"`
}

type claimService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewClaimService(db *gorm.DB) ClaimService {
	return &claimService{db: db, validator: validator.New()}
}

// CreateClaim registers a new claim under a contract. New claims always start
// inactive; the on-chain slot number may be assigned later.
func (s *claimService) CreateClaim(args CreateClaimArgs) (*models.DropperClaim, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}

	var contract models.DropperContract
	err := s.db.Where("id = ?", args.DropperContractID).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, args.DropperContractID)
	}
	if err != nil {
		return nil, err
	}

	terminusAddress := zeroAddress
	if args.TerminusAddress != "" {
		terminusAddress, err = utils.NormalizeAddress(args.TerminusAddress)
		if err != nil {
			return nil, err
		}
	}
	terminusPoolID := args.TerminusPoolID
	if terminusPoolID == nil {
		zero := int64(0)
		terminusPoolID = &zero
	}

	claim := &models.DropperClaim{
		ID:                 uuid.New().String(),
		DropperContractID:  contract.ID,
		ClaimID:            args.ClaimID,
		Title:              args.Title,
		Description:        args.Description,
		TerminusAddress:    terminusAddress,
		TerminusPoolID:     terminusPoolID,
		ClaimBlockDeadline: args.ClaimBlockDeadline,
		Active:             false,
	}
	if err := s.db.Create(claim).Error; err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *claimService) GetClaim(id string) (*models.DropperClaim, error) {
	var claim models.DropperClaim
	err := s.db.Where("id = ?", id).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ActivateClaim flips a claim to active. The slot check and the write happen
// inside one transaction, and the transaction first writes the parent
// contract row so concurrent activations on the same contract queue on its
// row lock. The slot count below therefore always runs after any competing
// activation has committed; without that lock, two activations of different
// claim rows sharing a slot could both count zero active rows under read
// committed isolation and both commit.
func (s *claimService) ActivateClaim(id string) (*models.DropperClaim, error) {
	var claim models.DropperClaim
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(&claim).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrClaimNotFound, id)
		}
		if err != nil {
			return err
		}
		if claim.Active {
			return nil
		}

		if claim.ClaimID != nil {
			err = tx.Model(&models.DropperContract{}).
				Where("id = ?", claim.DropperContractID).
				Update("updated_at", time.Now()).Error
			if err != nil {
				return err
			}

			var occupied int64
			err = tx.Model(&models.DropperClaim{}).
				Where("dropper_contract_id = ? AND claim_id = ? AND active = ? AND id <> ?",
					claim.DropperContractID, *claim.ClaimID, true, claim.ID).
				Count(&occupied).Error
			if err != nil {
				return err
			}
			if occupied > 0 {
				return fmt.Errorf("%w: contract %s claim id %d", ErrActiveSlotConflict, claim.DropperContractID, *claim.ClaimID)
			}
		}

		claim.Active = true
		return tx.Model(&models.DropperClaim{}).Where("id = ?", claim.ID).Update("active", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListClaims returns claims for a contract addressed by (blockchain,
// address), optionally filtered to one claimant address and/or activation
// state. Paginated; limit is capped at maxClaimPageSize.
func (s *claimService) ListClaims(args ListClaimsArgs) ([]models.DropperClaim, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}
	limit, offset, err := normalizePage(args.Limit, args.Offset)
	if err != nil {
		return nil, err
	}

	contractAddress, err := utils.NormalizeAddress(args.ContractAddress)
	if err != nil {
		return nil, err
	}

	var contract models.DropperContract
	err = s.db.Where("blockchain = ? AND address = ?", args.Blockchain, contractAddress).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, contractAddress, args.Blockchain)
	}
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.DropperClaim{}).
		Where("dropper_claims.dropper_contract_id = ?", contract.ID)

	if args.Active != nil {
		query = query.Where("dropper_claims.active = ?", *args.Active)
	}
	if args.ClaimantAddress != "" {
		claimantAddress, err := utils.NormalizeAddress(args.ClaimantAddress)
		if err != nil {
			return nil, err
		}
		query = query.
			Joins("JOIN dropper_claimants ON dropper_claimants.dropper_claim_id = dropper_claims.id").
			Where("dropper_claimants.address = ?", claimantAddress)
	}

	var claims []models.DropperClaim
	err = query.Order("dropper_claims.created_at ASC").Limit(limit).Offset(offset).Find(&claims).Error
	return claims, err
}

// normalizePage rejects negative paging and caps the page size. A zero limit
// gets the original API's default of 10.
func normalizePage(limit, offset int) (int, int, error) {
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPagination, limit, offset)
	}
	if limit == 0 {
		limit = 10
	}
	if limit > maxClaimPageSize {
		limit = maxClaimPageSize
	}
	return limit, offset, nil
}
