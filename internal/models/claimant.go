package models

import "time"

// DropperClaimant is an address's entitlement under a specific claim.
//
// Amount is the authoritative entitlement as a canonical decimal string so
// token amounts beyond 64 bits survive without precision loss. RawAmount
// keeps the caller-supplied representation verbatim for audit. Signature
// caches the last voucher signature issued for this claimant, if any.
type DropperClaimant struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DropperClaimID string    `gorm:"not null;type:varchar(36);uniqueIndex:uq_dropper_claimants_claim_address" json:"dropper_claim_id"`
	Address        string    `gorm:"not null;index;uniqueIndex:uq_dropper_claimants_claim_address" json:"address"`
	Amount         string    `gorm:"not null" json:"amount"`
	RawAmount      string    `gorm:"type:text" json:"raw_amount,omitempty"`
	AddedBy        string    `gorm:"not null;index" json:"added_by"`
	Signature      string    `gorm:"type:text;index" json:"signature,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Claim DropperClaim `gorm:"foreignKey:DropperClaimID;constraint:OnDelete:CASCADE" json:"claim,omitempty"`
}
