package report

import "time"

// UnassignedMasterName is substituted for the master name when a request has
// no master yet.
const UnassignedMasterName = "Unassigned"

// Interval holds the work timestamps of a completed request. Either bound
// may be missing when the request skipped a lifecycle step.
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// StatusCount is one row of the status distribution report.
type StatusCount struct {
	StatusName string
	Count      int
}

// MasterLoad is one row of the master load report.
type MasterLoad struct {
	MasterName    string
	AssignedCount int
}

// PerformanceRow details a single assigned request for the manager report.
type PerformanceRow struct {
	MasterName    string
	RequestID     int64
	ClientName    string
	Equipment     string
	StatusName    string
	DateCreated   time.Time
	DateStartWork *time.Time
	DateCompleted *time.Time
	Cost          *float64
}

// Details is the denormalized single-request view used for receipts.
type Details struct {
	RequestID   int64
	ClientName  string
	Equipment   string
	Description string
	MasterName  string
	StatusName  string
	DateCreated time.Time
}

// Summary bundles the operational reports gathered by Service.Summary.
type Summary struct {
	AverageRepairHours float64
	CompletedCount     int
	Statuses           []StatusCount
	MasterLoads        []MasterLoad
}
