package models

import "time"

// DropperContract is an on-chain token distribution contract this service
// issues vouchers against. A contract is identified by its blockchain tag and
// on-chain address jointly.
type DropperContract struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Blockchain  string    `gorm:"not null;uniqueIndex:uq_dropper_contracts_blockchain_address" json:"blockchain"`
	Address     string    `gorm:"not null;uniqueIndex:uq_dropper_contracts_blockchain_address;index" json:"address"`
	Title       string    `json:"title,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	ImageURI    string    `json:"image_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
