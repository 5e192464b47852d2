package model

// ProgressComplete is the item name reported by the final progress call.
const ProgressComplete = "complete"

// ProgressFunc receives (current, total, item) while a batch is processed.
// A final call reports (total, total, ProgressComplete).
type ProgressFunc func(current, total int, item string)

// Report calls p when it is not nil.
func (p ProgressFunc) Report(current, total int, item string) {
	if p != nil {
		p(current, total, item)
	}
}
