package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rxtech-lab/dropper-engine/internal/models"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

// ContractService owns dropper contract records. A contract is unique per
// (blockchain, address) pair.
type ContractService interface {
	CreateContract(args CreateContractArgs) (*models.DropperContract, error)
	GetContract(id string) (*models.DropperContract, error)
	GetContractByAddress(blockchain, address string) (*models.DropperContract, error)
	ListContracts(blockchain string) ([]models.DropperContract, error)
}

type CreateContractArgs struct {
	Blockchain  string `json:"blockchain" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURI    string `json:"image_uri,omitempty"`
}

type contractService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewContractService(db *gorm.DB) ContractService {
	return &contractService{db: db, validator: validator.New()}
}

func (s *contractService) CreateContract(args CreateContractArgs) (*models.DropperContract, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}

	address, err := utils.NormalizeAddress(args.Address)
	if err != nil {
		return nil, err
	}

	contract := &models.DropperContract{
		ID:          uuid.New().String(),
		Blockchain:  args.Blockchain,
		Address:     address,
		Title:       args.Title,
		Description: args.Description,
		ImageURI:    args.ImageURI,
	}
	if err := s.db.Create(contract).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateContract, address, args.Blockchain)
		}
		return nil, err
	}
	return contract, nil
}

func (s *contractService) GetContract(id string) (*models.DropperContract, error) {
	var contract models.DropperContract
	err := s.db.Where("id = ?", id).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (s *contractService) GetContractByAddress(blockchain, address string) (*models.DropperContract, error) {
	normalized, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var contract models.DropperContract
	err = s.db.Where("blockchain = ? AND address = ?", blockchain, normalized).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, normalized, blockchain)
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// ListContracts returns all contracts, filtered by blockchain when non-empty.
func (s *contractService) ListContracts(blockchain string) ([]models.DropperContract, error) {
	query := s.db.Model(&models.DropperContract{})
	if blockchain != "" {
		query = query.Where("blockchain = ?", blockchain)
	}

	var contracts []models.DropperContract
	err := query.Find(&contracts).Error
	return contracts, err
}
