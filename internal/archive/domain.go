package archive

import "time"

// State is the soft-delete lifecycle state of an entity.
type State string

const (
	StateActive   State = "active"
	StateArchived State = "archived"
	// StateDeleted is terminal; it is only reachable from StateArchived.
	StateDeleted State = "deleted"
)

// EntityType enumerates the archivable entity types.
type EntityType string

const (
	EntityPatient EntityType = "patient"
	EntityUser    EntityType = "user"
	EntityInvoice EntityType = "invoice"
	EntityPayment EntityType = "payment"
)

// Action is a requested state transition.
type Action string

const (
	ActionArchive Action = "archive"
	ActionRestore Action = "restore"
	ActionDelete  Action = "delete"
)

// Entity is the archive-relevant snapshot of a stored record.
type Entity struct {
	ID         int64      `json:"id"`
	Type       EntityType `json:"type"`
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchivedBy string     `json:"archived_by,omitempty"`
}

// State derives the lifecycle state from the snapshot flags.
func (e Entity) State() State {
	if e.Archived {
		return StateArchived
	}
	return StateActive
}

// Result reports the outcome of a single-entity transition.
type Result struct {
	Success bool    `json:"success"`
	Entity  *Entity `json:"entity,omitempty"`
}

// BulkResult reports the outcome of a bulk transition. Bulk operations are
// not cross-record transactional: Count reflects how many records were
// actually updated, and FirstError carries the first failure encountered.
type BulkResult struct {
	Success    bool   `json:"success"`
	Count      int    `json:"count"`
	FirstError string `json:"first_error,omitempty"`
}

// ParseEntityType validates a URL-supplied entity type.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityPatient, EntityUser, EntityInvoice, EntityPayment:
		return EntityType(s), true
	}
	return "", false
}

// ParseAction validates a URL-supplied action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionArchive, ActionRestore, ActionDelete:
		return Action(s), true
	}
	return "", false
}
