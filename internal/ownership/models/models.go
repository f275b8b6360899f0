package models

import (
	"time"

	"namereg/pkg/domain"
)

// Role is a capability on the ownership ledger.
type Role string

const (
	// RoleOwner administers the manager allow-list.
	RoleOwner Role = "owner"
	// RoleManager may write name -> account entries.
	RoleManager Role = "manager"
)

// Manager is an allow-listed writer.
type Manager struct {
	Account domain.Account `json:"account"`
	AddedAt time.Time      `json:"added_at"`
}
