package model

// TrackerIssue is the data the issue tracker returns for a test key.
type TrackerIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Steps   string `json:"test_steps,omitempty"`
}
