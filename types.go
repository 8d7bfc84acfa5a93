package coalesce

import (
	"github.com/arloliu/coalesce/signature"
	"github.com/arloliu/coalesce/types"
)

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// and `signature` subpackages, so internal packages can depend on them without
// importing the root package, while users still write coalesce.Sink,
// coalesce.Logger and so on.
type (
	ChannelState    = types.ChannelState
	ChannelInfo     = types.ChannelInfo
	ChannelSnapshot = types.ChannelSnapshot
	Field           = types.Field
	SinkFuncs       = types.SinkFuncs
)

// Re-export interfaces from the internal types package for convenience.
type (
	Sink             = types.Sink
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
)

// Re-export argument reference types from the signature package.
type (
	Ref     = signature.Ref
	RefFunc = signature.RefFunc
)

// Value is a mutable argument reference resolved when a subscription is created.
type Value[T any] = signature.Value[T]

// Re-export ChannelState constants from the internal types package.
const (
	StateIdle    = types.StateIdle
	StateLoading = types.StateLoading
	StateReady   = types.StateReady
	StateErrored = types.StateErrored
)

// Re-export Field constants from the internal types package.
const (
	FieldLoading  = types.FieldLoading
	FieldExecuted = types.FieldExecuted
	FieldErrored  = types.FieldErrored
	FieldError    = types.FieldError
	FieldResponse = types.FieldResponse
	FieldRefresh  = types.FieldRefresh
)

// NewValue creates a mutable argument reference.
//
// The reference is read once by Subscribe; the channel keeps executing with that
// value. After Set, Resubscribe moves the consumer to the channel for the new value.
//
// Example:
//
//	page := coalesce.NewValue(1)
//	sub, _ := mgr.Subscribe(listItems, []any{page}, coalesce.Options{})
//	page.Set(2)
//	sub, _ = mgr.Resubscribe(sub, []any{page})
func NewValue[T any](v T) *Value[T] {
	return signature.NewValue(v)
}
