package model

// Comparison classifies the transition of every test between two reports.
//
// Each bucket holds records from the new report sorted by identifier.
type Comparison struct {
	NewFailures   []Record
	Fixed         []Record
	StillFailing  []Record
	NewErrors     []Record
	FixedErrors   []Record
	StillErroring []Record
	NewPasses     []Record
}
