package domain

import (
	"errors"
)

// Failure describes why a tool invocation did not produce a value.
type Failure struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Outcome is the single result type returned by every tool: either a value
// or a Failure, never both.
type Outcome struct {
	Value   any      `json:"value,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Success wraps a tool value.
func Success(value any) Outcome {
	return Outcome{Value: value}
}

// Fail converts err into a failed outcome, keeping the domain code as kind.
func Fail(err error) Outcome {
	if err == nil {
		return Outcome{Failure: &Failure{Kind: ErrCodeInternalError, Detail: "unknown error"}}
	}
	var de *DomainError
	if errors.As(err, &de) {
		return Outcome{Failure: &Failure{Kind: de.Code, Detail: err.Error()}}
	}
	return Outcome{Failure: &Failure{Kind: ErrCodeInternalError, Detail: err.Error()}}
}

// OK reports whether the outcome carries a value.
func (o Outcome) OK() bool {
	return o.Failure == nil
}
