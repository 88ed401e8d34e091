// Package tracking follows each order unit's two sub-items through the eight
// shipment stages.
//
// Reads never write: [Tracker.Get] returns the default record for a key that
// was never advanced. Transitions are guarded; a record only moves to the
// stage directly after its current one and stops at [FinalStage].
package tracking

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Errors returned by the transition functions
var (
	ErrInvalidTransition = errors.New("stage transition must move to the next stage")
	ErrTerminalStage     = errors.New("order is already at the final stage")
	ErrNotAtFinalStage   = errors.New("delivery can only be confirmed at the final stage")
	ErrAlreadyDelivered  = errors.New("delivery already confirmed")
	ErrInvalidUnit       = errors.New("unit must be 1 or 2")
	ErrInvalidOrderID    = errors.New("order id is required")
)

// SubItemsPerUnit is the number of independently tracked items per order unit
const SubItemsPerUnit = 2

// Date and time layouts of history stamps
const (
	DateLayout = "02-01-2006"
	TimeLayout = "15:04:05"
)

// Stamp is when a stage was reached, formatted for display
type Stamp struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// StampAt formats t as a history stamp
func StampAt(t time.Time) Stamp {
	return Stamp{Date: t.Format(DateLayout), Time: t.Format(TimeLayout)}
}

// seed is the history entry of a record nobody advanced yet
var seed = Stamp{Date: "24-05-2025", Time: "10:30:00"}

// Key identifies one tracked sub-item of an order
type Key struct {
	OrderID string
	Unit    int
}

// NewKey validates the parts of a key
func NewKey(orderID string, unit int) (Key, error) {
	if orderID == "" {
		return Key{}, ErrInvalidOrderID
	}
	if unit < 1 || unit > SubItemsPerUnit {
		return Key{}, errors.Wrapf(ErrInvalidUnit, "got %d", unit)
	}
	return Key{OrderID: orderID, Unit: unit}, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s-%d", k.OrderID, k.Unit)
}

// Record is the shipment progress of one sub-item
type Record struct {
	CurrentStageID    int           `json:"currentStageId"`
	History           map[int]Stamp `json:"history"`
	DeliveryConfirmed *Stamp        `json:"deliveryConfirmed,omitempty"`
}

// Default is the record of a sub-item nobody advanced yet
func Default() Record {
	return Record{
		CurrentStageID: FirstStage,
		History:        map[int]Stamp{FirstStage: seed},
	}
}

// Clone returns a deep copy of r
func (r Record) Clone() Record {
	out := Record{
		CurrentStageID: r.CurrentStageID,
		History:        make(map[int]Stamp, len(r.History)),
	}
	for id, s := range r.History {
		out.History[id] = s
	}
	if r.DeliveryConfirmed != nil {
		confirmed := *r.DeliveryConfirmed
		out.DeliveryConfirmed = &confirmed
	}
	return out
}

// Delivered reports whether the final stage was confirmed
func (r Record) Delivered() bool {
	return r.DeliveryConfirmed != nil
}

// Advance moves r to target, which must be the stage right after the current one
func Advance(r Record, target int, at Stamp) (Record, error) {
	if r.CurrentStageID >= FinalStage {
		return r, ErrTerminalStage
	}
	if target != r.CurrentStageID+1 {
		return r, errors.Wrapf(ErrInvalidTransition, "current stage %d, requested %d", r.CurrentStageID, target)
	}

	next := r.Clone()
	next.CurrentStageID = target
	next.History[target] = at
	return next, nil
}

// ConfirmDelivery closes a record sitting at the final stage
func ConfirmDelivery(r Record, at Stamp) (Record, error) {
	if r.CurrentStageID != FinalStage {
		return r, errors.Wrapf(ErrNotAtFinalStage, "current stage %d", r.CurrentStageID)
	}
	if r.Delivered() {
		return r, ErrAlreadyDelivered
	}

	next := r.Clone()
	next.DeliveryConfirmed = &at
	return next, nil
}
