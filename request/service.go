package request

import (
	"context"
	"fmt"
	"strings"
)

// Service owns the request lifecycle: creation, assignment, completion, and
// field mutations. All persistence goes through the Repository; concurrency
// guards (conditional claim, bounded sequence recovery) live there.
type Service struct {
	repo              Repository
	initialStatus     StatusName
	strictTransitions bool
}

// NewService creates a lifecycle service with the default initial status.
func NewService(repo Repository) *Service {
	return &Service{
		repo:          repo,
		initialStatus: StatusNew,
	}
}

// WithInitialStatus overrides the status name newly created requests start in.
func (s *Service) WithInitialStatus(name StatusName) *Service {
	s.initialStatus = name
	return s
}

// WithStrictTransitions makes UpdateStatus enforce the transition allow-list
// instead of permitting arbitrary jumps.
func (s *Service) WithStrictTransitions() *Service {
	s.strictTransitions = true
	return s
}

// Create opens a new request for a client and returns its identifier.
func (s *Service) Create(ctx context.Context, params CreateParams) (int64, error) {
	if params.ClientID <= 0 {
		return 0, fmt.Errorf("request: client id required")
	}
	if params.TypeID <= 0 {
		return 0, fmt.Errorf("request: equipment type id required")
	}
	if strings.TrimSpace(params.Model) == "" {
		return 0, fmt.Errorf("request: model required")
	}

	if params.InitialStatus == "" {
		params.InitialStatus = s.initialStatus
	}

	return s.repo.Create(ctx, params)
}

// AssignMaster assigns a master directly, e.g. by a manager. The assignment
// is unconditional: no check that the request is still unassigned or New.
func (s *Service) AssignMaster(ctx context.Context, requestID, masterID int64) error {
	if masterID <= 0 {
		return fmt.Errorf("request: master id required")
	}
	return s.repo.AssignMaster(ctx, requestID, masterID)
}

// Respond lets a master claim an unassigned request. The first responder
// wins; later callers get ErrAlreadyAssigned.
func (s *Service) Respond(ctx context.Context, requestID, masterID int64) error {
	if masterID <= 0 {
		return fmt.Errorf("request: master id required")
	}
	return s.repo.ClaimForMaster(ctx, requestID, masterID)
}

// Complete closes a request out to an explicit target status, recording the
// completion time, cost, and repair parts.
func (s *Service) Complete(ctx context.Context, requestID, statusID int64, cost float64, repairParts string) error {
	if cost < 0 {
		return fmt.Errorf("request: negative cost")
	}
	return s.repo.Complete(ctx, CompleteParams{
		RequestID:   requestID,
		StatusID:    statusID,
		Cost:        cost,
		RepairParts: repairParts,
	})
}

// CompleteWithCost is the convenience completion path: it resolves the
// Completed status by name and delegates to Complete.
func (s *Service) CompleteWithCost(ctx context.Context, requestID int64, cost float64) error {
	statusID, err := s.repo.StatusIDByName(ctx, StatusCompleted)
	if err != nil {
		return err
	}
	return s.Complete(ctx, requestID, statusID, cost, "")
}

// UpdateDescription replaces the free-text description of a request.
func (s *Service) UpdateDescription(ctx context.Context, requestID int64, description string) error {
	return s.repo.UpdateDescription(ctx, requestID, description)
}

// UpdateStatus moves a request to an arbitrary status. Without strict mode
// this is an administrative escape hatch and any jump is permitted; with
// strict mode the target must be adjacent to the current status.
func (s *Service) UpdateStatus(ctx context.Context, requestID, statusID int64) error {
	if s.strictTransitions {
		info, err := s.repo.StatusInfo(ctx, requestID)
		if err != nil {
			return err
		}
		target, err := s.repo.StatusNameByID(ctx, statusID)
		if err != nil {
			return err
		}
		if !transitionAllowed(info.StatusName, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, info.StatusName, target)
		}
	}
	return s.repo.UpdateStatus(ctx, requestID, statusID)
}

// StatusInfo returns the current status and master for precondition checks.
func (s *Service) StatusInfo(ctx context.Context, requestID int64) (StatusInfo, error) {
	return s.repo.StatusInfo(ctx, requestID)
}
