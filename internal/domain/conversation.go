package domain

import (
	"fmt"
	"strings"
)

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
	TurnRoleSystem    TurnRole = "system"
)

// Turn is one message of a conversation between the user and the agent.
type Turn struct {
	Role TurnRole `json:"role"`
	Text string   `json:"text"`
}

// ValidateTurns checks that every turn has a known role and non-empty text.
func ValidateTurns(turns []Turn) error {
	for i, t := range turns {
		if !isValidTurnRole(t.Role) {
			return NewDomainError(ErrCodeValidation, fmt.Sprintf("turn %d has invalid role %q", i, t.Role))
		}
		if strings.TrimSpace(t.Text) == "" {
			return NewDomainError(ErrCodeValidation, fmt.Sprintf("turn %d has empty text", i))
		}
	}
	return nil
}

func isValidTurnRole(r TurnRole) bool {
	switch r {
	case TurnRoleUser, TurnRoleAssistant, TurnRoleSystem:
		return true
	}
	return false
}
