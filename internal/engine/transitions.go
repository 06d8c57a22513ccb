package engine

import (
	"fmt"

	"caseflow/internal/domain"
)

// ensureCaseTransition enforces the lifecycle graph. force skips the graph
// check for corrections, but a closed case stays closed regardless.
func ensureCaseTransition(oldStatus, newStatus domain.CaseStatus, force bool) error {
	if oldStatus == domain.StatusClosed {
		return fmt.Errorf("case is closed; closed cases cannot change status")
	}
	if force {
		return nil
	}
	switch oldStatus {
	case domain.StatusNew:
		if newStatus == domain.StatusTriaged || newStatus == domain.StatusAssigned {
			return nil
		}
	case domain.StatusTriaged:
		if newStatus == domain.StatusAssigned {
			return nil
		}
	case domain.StatusAssigned:
		if newStatus == domain.StatusInProgress {
			return nil
		}
	case domain.StatusInProgress:
		if newStatus == domain.StatusClosed {
			return nil
		}
	}
	return fmt.Errorf("invalid case status transition %s -> %s", oldStatus, newStatus)
}
