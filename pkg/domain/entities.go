// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by breederbook.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityAnimal identifies an individual animal record.
	EntityAnimal EntityType = "animal"
	// EntityLitter identifies a litter record.
	EntityLitter EntityType = "litter"
	// EntityOwner identifies an external owner record.
	EntityOwner EntityType = "owner"
)

// Sex captures the recorded sex of an animal.
type Sex string

// Canonical sexes. SexUnknown is used whenever the source did not say.
const (
	SexUnknown Sex = "unknown"
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// String renders the sex for notes and messages.
func (s Sex) String() string {
	if s == "" {
		return string(SexUnknown)
	}
	return string(s)
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Animal represents an individual animal tracked by the breeder.
type Animal struct {
	Base
	Name        string     `json:"name"`
	Sex         Sex        `json:"sex"`
	Variety     string     `json:"variety"`
	BirthDate   *time.Time `json:"birth_date"`
	DeathDate   *time.Time `json:"death_date"`
	OwnedBySelf bool       `json:"owned_by_self"`
	OwnerID     *string    `json:"owner_id"`
	Notes       string     `json:"notes,omitempty"`
}

// Litter groups the offspring of a single birth together with its parents.
type Litter struct {
	Base
	DamID        *string    `json:"dam_id"`
	SireID       *string    `json:"sire_id"`
	MatingDate   *time.Time `json:"mating_date"`
	BirthDate    *time.Time `json:"birth_date"`
	Notes        string     `json:"notes,omitempty"`
	OffspringIDs []string   `json:"offspring_ids"`
}

// Owner is a person outside the breeder's own household who owns animals.
type Owner struct {
	Base
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rules: %s", v.Message)
		}
	}
	return "transaction blocked by rules"
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrParentSex is returned when an animal of the wrong sex is attached to a
// litter as dam or sire.
type ErrParentSex struct {
	LitterID string
	AnimalID string
	Role     string
	Sex      Sex
}

func (e ErrParentSex) Error() string {
	return fmt.Sprintf("litter %s: animal %s cannot be %s (sex %s)", e.LitterID, e.AnimalID, e.Role, e.Sex)
}
