// Package errors provides error handling for livesync.
//
// This package re-exports github.com/cockroachdb/errors so every package
// creates and wraps errors the same way, with stack traces attached:
//
//	if err := reg.Bind(t); err != nil {
//	    return errors.Wrap(err, "failed to bind registry")
//	}
//
// Configuration mistakes carry hints for the operator:
//
//	return errors.WithHint(ErrNotBound, "call Registry.Bind before subscribing")
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// Hints and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)
