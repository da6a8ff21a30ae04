package interview

import (
	"context"
	"time"
)

// SlotLister resolves the slot sets of people by id, regardless of role.
type SlotLister interface {
	ListSlots(ctx context.Context, ids []int64) (map[int64][]time.Time, error)
}

type Accessor struct {
	slotLister SlotLister
}

func NewAccessor(slotLister SlotLister) *Accessor {
	return &Accessor{
		slotLister: slotLister,
	}
}
