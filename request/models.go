package request

import "time"

// StatusName is the human-readable name of a status reference row.
type StatusName string

const (
	StatusNew        StatusName = "New"
	StatusInProgress StatusName = "In Progress"
	StatusCompleted  StatusName = "Completed"
)

// Request mirrors the requests table columns touched by the engine.
type Request struct {
	ID            int64
	ClientID      int64
	TypeID        int64
	Model         string
	Description   string
	SerialNumber  *string
	StatusID      int64
	MasterID      *int64
	DateCreated   time.Time
	DateStartWork *time.Time
	DateCompleted *time.Time
	Cost          *float64
	RepairParts   *string
}

// StatusInfo is the slice of request state callers need to validate
// preconditions before invoking a transition.
type StatusInfo struct {
	StatusID   int64
	StatusName StatusName
	MasterID   *int64
}

// CreateParams enumerates the fields required to open a new request.
type CreateParams struct {
	ClientID      int64
	TypeID        int64
	Model         string
	Description   string
	SerialNumber  *string
	InitialStatus StatusName
}

// CompleteParams enumerates the fields written when a request is closed out.
type CompleteParams struct {
	RequestID   int64
	StatusID    int64
	Cost        float64
	RepairParts string
}
