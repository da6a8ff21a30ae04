package interview

import (
	"context"
	"doodle/slot"
	"fmt"
	"slices"
	"time"
)

// FindCommonSlots intersects the slot sets of the given people. An id that
// belongs to nobody contributes an empty set, so the result is empty rather
// than an error. Repeated ids are echoed back but only counted once.
func (a *Accessor) FindCommonSlots(ctx context.Context, ids []int64) (*CommonSlots, error) {
	result := &CommonSlots{
		IDs:   slices.Clone(ids),
		Times: []time.Time{},
	}
	if result.IDs == nil {
		result.IDs = []int64{}
	}
	if len(ids) == 0 {
		return result, nil
	}

	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	slots, err := a.slotLister.ListSlots(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	sets := make([][]time.Time, 0, len(unique))
	for _, id := range unique {
		sets = append(sets, slots[id])
	}
	result.Times = slot.Intersect(sets...)

	return result, nil
}
