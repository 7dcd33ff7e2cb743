package service

import (
	"github.com/wso2/financial-services-accelerator-sub020/internal/config"
)

// Authorization resource statuses. Unlike consent statuses these are fixed,
// not configurable.
const (
	AuthStatusCreated    = "created"
	AuthStatusAuthorized = "authorized"
	AuthStatusRejected   = "rejected"
)

// StateMachine decides which consent status transitions are legal. It is
// built from the configured status strings, so deployments that rename
// statuses (e.g. "awaitingAuthorisation") get the same transition graph.
type StateMachine struct {
	statuses    config.ConsentStatusMappings
	transitions map[string]map[string]bool
	terminal    map[string]bool
}

// NewStateMachine builds the transition graph from the configured statuses.
func NewStateMachine(statuses config.ConsentStatusMappings) *StateMachine {
	transitions := map[string]map[string]bool{
		statuses.ReceivedStatus: {
			statuses.AuthorizedStatus: true,
			statuses.RejectedStatus:   true,
		},
		statuses.AuthorizedStatus: {
			statuses.AmendedStatus: true,
			statuses.RevokedStatus: true,
			statuses.ExpiredStatus: true,
		},
		statuses.AmendedStatus: {
			statuses.AuthorizedStatus: true,
			statuses.AmendedStatus:    true,
			statuses.RevokedStatus:    true,
			statuses.ExpiredStatus:    true,
		},
	}

	terminal := map[string]bool{
		statuses.RejectedStatus: true,
		statuses.RevokedStatus:  true,
		statuses.ExpiredStatus:  true,
	}

	return &StateMachine{
		statuses:    statuses,
		transitions: transitions,
		terminal:    terminal,
	}
}

// CanTransition reports whether moving a consent from one status to another
// is legal.
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, ok := sm.transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// IsTerminal reports whether a status permits no further transitions.
func (sm *StateMachine) IsTerminal(status string) bool {
	return sm.terminal[status]
}

// IsActive reports whether a consent in this status grants access: only
// authorized and amended consents do.
func (sm *StateMachine) IsActive(status string) bool {
	return status == sm.statuses.AuthorizedStatus || status == sm.statuses.AmendedStatus
}

// CanAuthTransition reports whether an authorization resource may move from
// one status to another.
func (sm *StateMachine) CanAuthTransition(from, to string) bool {
	if from != AuthStatusCreated {
		return false
	}
	return to == AuthStatusAuthorized || to == AuthStatusRejected
}
