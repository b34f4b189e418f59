package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompile is matched by every compile error via errors.Is.
var ErrCompile = errors.New("compile error")

// TypeMismatchError reports operand types that violate an operator's type rule.
type TypeMismatchError struct {
	Op       string   // operator name, e.g. "add"
	Node     string   // structural description of the offending node
	Operands []string // operand type names in order
	Message  string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("type mismatch in %s(%s)", e.Op, strings.Join(e.Operands, ", "))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Node != "" {
		msg += fmt.Sprintf(" [node %s]", e.Node)
	}
	return msg
}

// Is reports whether target is ErrCompile.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrCompile }

// SchemaResolutionError reports a column or table reference that cannot be resolved.
type SchemaResolutionError struct {
	Ref     string // the unresolved reference
	Table   string // the enclosing table
	Node    string
	Message string
}

func (e *SchemaResolutionError) Error() string {
	msg := fmt.Sprintf("schema resolution error: %q in %s", e.Ref, e.Table)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target is ErrCompile.
func (e *SchemaResolutionError) Is(target error) bool { return target == ErrCompile }

// UnsupportedOperationError reports an operator or bound kind the target
// dialect has no mapping or translation for.
type UnsupportedOperationError struct {
	Op      string
	Dialect string
	Node    string
	Message string
}

func (e *UnsupportedOperationError) Error() string {
	msg := fmt.Sprintf("operation %s is not supported in %s dialect", e.Op, e.Dialect)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target is ErrCompile.
func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrCompile }

// WindowSpecError reports an invalid window specification.
type WindowSpecError struct {
	Node    string
	Dialect string // empty when the error is dialect-independent
	Message string
}

func (e *WindowSpecError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("window spec error (%s): %s [node %s]", e.Dialect, e.Message, e.Node)
	}
	return fmt.Sprintf("window spec error: %s [node %s]", e.Message, e.Node)
}

// Is reports whether target is ErrCompile.
func (e *WindowSpecError) Is(target error) bool { return target == ErrCompile }

// WatermarkError reports a watermark whose time column is missing or not time-typed.
type WatermarkError struct {
	Table   string
	Column  string
	Message string
}

func (e *WatermarkError) Error() string {
	return fmt.Sprintf("watermark error on %s: column %q %s", e.Table, e.Column, e.Message)
}

// Is reports whether target is ErrCompile.
func (e *WatermarkError) Is(target error) bool { return target == ErrCompile }

// Common error messages
const (
	ErrMsgColumnNotFound   = "column not found"
	ErrMsgDuplicateColumn  = "duplicate column name"
	ErrMsgFrameNoOrderBy   = "a window frame requires a non-empty ORDER BY"
	ErrMsgRankingFrame     = "ranking functions do not accept a window frame"
	ErrMsgRangeOrderKey    = "a RANGE frame requires exactly one time-valued ORDER BY key"
	ErrMsgBoundOrder       = "frame lower bound is after upper bound"
	ErrMsgNegativeOffset   = "frame bound offset must not be negative"
	ErrMsgNotTimeTyped     = "is not a time-valued column"
	ErrMsgMissingTimeCol   = "does not exist in the table schema"
	ErrMsgRowsOnlyFrames   = "dialect only supports row-count frame bounds"
	ErrMsgInexactInterval  = "interval is not a whole number of %s"
	ErrMsgNoFunctionSpell  = "no function mapping"
	ErrMsgNoTypeSpell      = "no type mapping"
	ErrMsgNoWatermarkInDDL = "dialect cannot declare watermarks"
)
