package interview

import "time"

// CommonSlots is the answer to an interview query: the ids as they were
// asked for and the instants every one of them is available at.
type CommonSlots struct {
	IDs   []int64     `json:"ids"`
	Times []time.Time `json:"times"`
}
