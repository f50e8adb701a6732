package models

import "time"

// Party is a registered wallet holder, identified by its UPI address.
type Party struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Address      string    `gorm:"uniqueIndex;not null;size:256" json:"upiId"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        string    `gorm:"uniqueIndex;not null;size:15" json:"phoneNumber"`
	PinHash      string    `gorm:"not null" json:"-"`
	TokenVersion int       `gorm:"default:1" json:"-"`
	Wallet       *Wallet   `gorm:"foreignKey:Address;references:Address" json:"wallet,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// RegisterPartyInput is the registration payload.
type RegisterPartyInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phoneNumber" validate:"required,phone"`
	Address string `json:"upiId" validate:"required,upi"`
	Pin     string `json:"pin" validate:"required,pin"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Phone string `json:"phoneNumber" validate:"required,phone"`
	Pin   string `json:"pin" validate:"required,pin"`
}
