package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"namereg/pkg/domain"
)

// EventCategory classifies events by the component that produced them.
// Consumers route on category; the relay uses it as the record key prefix.
type EventCategory string

const (
	// CategoryRegistry covers the claim/register/renew/unstake lifecycle.
	CategoryRegistry EventCategory = "registry"

	// CategoryCollateral covers balance movements on the collateral ledger.
	CategoryCollateral EventCategory = "collateral"

	// CategoryOwnership covers ownership ledger writes and its manager allow-list.
	CategoryOwnership EventCategory = "ownership"
)

// Event is emitted from domain logic to capture state changes for external
// observers. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Action    string
	Timestamp time.Time
	// Name is the registry name the event concerns, if any.
	Name string
	// Account is the acting or affected account (claimant, owner, staker, sender).
	Account domain.Account
	// Counterparty is the second account of two-party events (recipient, spender, manager).
	Counterparty domain.Account
	Commitment   domain.CommitmentHash
	Amount       uint64
	Expiration   time.Time
	RequestID    string
	PublishedAt  *time.Time
}

type AuditEvent string

const (
	// Registry events
	EventClaimRecorded  AuditEvent = "claim_recorded"
	EventNameRegistered AuditEvent = "name_registered"
	EventNameRenewed    AuditEvent = "name_renewed"
	EventStakeReleased  AuditEvent = "stake_released"

	// Collateral events
	EventCollateralMinted      AuditEvent = "collateral_minted"
	EventCollateralTransferred AuditEvent = "collateral_transferred"
	EventCollateralApproved    AuditEvent = "collateral_approved"

	// Ownership events
	EventNameSet        AuditEvent = "name_set"
	EventManagerAdded   AuditEvent = "manager_added"
	EventManagerRemoved AuditEvent = "manager_removed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventClaimRecorded:  CategoryRegistry,
	EventNameRegistered: CategoryRegistry,
	EventNameRenewed:    CategoryRegistry,
	EventStakeReleased:  CategoryRegistry,

	EventCollateralMinted:      CategoryCollateral,
	EventCollateralTransferred: CategoryCollateral,
	EventCollateralApproved:    CategoryCollateral,

	EventNameSet:        CategoryOwnership,
	EventManagerAdded:   CategoryOwnership,
	EventManagerRemoved: CategoryOwnership,
}

// Category returns the EventCategory for this event.
// Unknown events default to CategoryRegistry.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryRegistry
}

// Category returns the category derived from the event's action.
func (e Event) Category() EventCategory {
	return AuditEvent(e.Action).Category()
}

// Store persists events. Append participates in the caller's transaction.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxStore is a Store whose events are relayed to an external sink.
type OutboxStore interface {
	Store
	// FetchUnpublished returns up to limit events not yet relayed, oldest first.
	FetchUnpublished(ctx context.Context, limit int) ([]Event, error)
	// MarkPublished records that the events were delivered.
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
