package models

import "github.com/golang-jwt/jwt/v5"

// PartyClaims are the JWT claims issued at login.
type PartyClaims struct {
	jwt.RegisteredClaims
	PartyID      uint   `json:"party_id"`
	Address      string `json:"upi_id"`
	Phone        string `json:"phone"`
	TokenVersion int    `json:"token_version"`
}

// Owns reports whether the token holder owns the wallet at address.
func (c *PartyClaims) Owns(address string) bool {
	return c != nil && c.Address == address
}
