package models

import "time"

// DropperClaim is a distribution event within a dropper contract. ClaimID is
// the on-chain claim slot number; it is nullable because claims are drafted
// off-chain before the slot is assigned. Only one active claim may occupy a
// given (contract, claim slot) pair; the invariant is enforced in
// ClaimService.ActivateClaim rather than by a schema constraint because the
// uniqueness is conditional on ClaimID being set and Active being true.
type DropperClaim struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DropperContractID  string    `gorm:"not null;index;type:varchar(36)" json:"dropper_contract_id"`
	ClaimID            *int64    `gorm:"index" json:"claim_id,omitempty"`
	Title              string    `json:"title,omitempty"`
	Description        string    `gorm:"type:text" json:"description,omitempty"`
	TerminusAddress    string    `gorm:"index" json:"terminus_address,omitempty"`
	TerminusPoolID     *int64    `gorm:"index" json:"terminus_pool_id,omitempty"`
	ClaimBlockDeadline *int64    `json:"claim_block_deadline,omitempty"`
	Active             bool      `gorm:"not null;default:false" json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Contract DropperContract `gorm:"foreignKey:DropperContractID;constraint:OnDelete:CASCADE" json:"contract,omitempty"`
}
