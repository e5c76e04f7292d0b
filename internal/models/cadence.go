package models

import (
	"errors"
	"strings"
)

type CadenceKind string

const (
	CadenceDaily   CadenceKind = "daily"
	CadenceWeekly  CadenceKind = "weekly"
	CadenceMonthly CadenceKind = "monthly"
	CadenceYearly  CadenceKind = "yearly"
	CadenceCustom  CadenceKind = "custom"
)

var (
	ErrCustomCadenceRequired = errors.New("custom cadence requires an expression")
	ErrUnknownCadence        = errors.New("unknown cadence")
)

// Cadence is a repeat rule. A nil *Cadence means the reminder fires once.
// The custom expression exists only for CadenceCustom.
type Cadence struct {
	kind CadenceKind
	expr string
}

// NewCadence validates a stored or user-supplied kind/expression pair.
func NewCadence(kind CadenceKind, expr string) (Cadence, error) {
	expr = strings.TrimSpace(expr)
	switch kind {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceYearly:
		if expr != "" {
			return Cadence{}, ErrUnknownCadence
		}
		return Cadence{kind: kind}, nil
	case CadenceCustom:
		if expr == "" {
			return Cadence{}, ErrCustomCadenceRequired
		}
		return Cadence{kind: kind, expr: strings.ToLower(expr)}, nil
	default:
		return Cadence{}, ErrUnknownCadence
	}
}

// CustomCadence builds a custom cadence from an "every ..." expression.
func CustomCadence(expr string) (Cadence, error) {
	return NewCadence(CadenceCustom, expr)
}

// ParseCadence accepts "daily", "weekly", "monthly", "yearly" or any
// "every ..." text, which becomes a custom cadence.
func ParseCadence(s string) (Cadence, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "every ") {
		return CustomCadence(s)
	}
	if s == string(CadenceCustom) {
		return Cadence{}, ErrCustomCadenceRequired
	}
	return NewCadence(CadenceKind(s), "")
}

func (c Cadence) Kind() CadenceKind { return c.kind }

// Expr is the custom expression, empty for the fixed kinds.
func (c Cadence) Expr() string { return c.expr }

func (c Cadence) String() string {
	if c.kind == CadenceCustom {
		return c.expr
	}
	return string(c.kind)
}
