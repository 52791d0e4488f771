package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementAction names the operation that produced a movement event.
type MovementAction string

// Movement actions
const (
	ActionReceive  MovementAction = "receive"
	ActionSplit    MovementAction = "split"
	ActionIssue    MovementAction = "issue"
	ActionTransfer MovementAction = "transfer"
	ActionReturn   MovementAction = "return"
	ActionExpire   MovementAction = "expire"
)

// MovementEvent is the payload handed to the external transaction ledger.
// The ledger core builds it but never persists it.
type MovementEvent struct {
	ID               string
	Action           MovementAction
	ItemKind         ItemKind
	PartNumber       string
	ParentIdentifier string
	ChildIdentifier  string // empty when no child was created
	Quantity         decimal.Decimal
	Actor            string
	FromLocation     string
	ToLocation       string
	Timestamp        time.Time
}
