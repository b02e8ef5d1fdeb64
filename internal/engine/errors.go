package engine

import (
	"errors"
	"fmt"
)

// TaskError describes a task whose action failed during Step.
//
// The frame log records only Err's message; TaskError carries the full
// context for the logger and the Observer.
type TaskError struct {
	TaskID string
	Label  string
	Queue  QueueType
	Tick   int
	Err    error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s (%s %q) failed at tick %d: %v", e.TaskID, e.Queue, e.Label, e.Tick, e.Err)
}

// Unwrap returns the action's error.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking action.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TickBudgetError is returned by drivers that stop stepping after a fixed
// number of ticks without the loop draining.
type TickBudgetError struct {
	Ticks   int // Ticks taken
	Limit   int // Budget
	Pending int // Tasks still queued when the budget ran out
}

// Error implements the error interface.
func (e *TickBudgetError) Error() string {
	return fmt.Sprintf("tick budget exhausted: %d ticks (limit %d), %d tasks pending", e.Ticks, e.Limit, e.Pending)
}

// IsTickBudgetError reports whether err is or wraps a TickBudgetError.
func IsTickBudgetError(err error) bool {
	var te *TickBudgetError
	return errors.As(err, &te)
}

// IsTaskError reports whether err is or wraps a TaskError.
func IsTaskError(err error) bool {
	var te *TaskError
	return errors.As(err, &te)
}
