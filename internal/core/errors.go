package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNotFound       = errors.New("expense not found")
	ErrDataCorruption = errors.New("data file corrupted")
	ErrPersistence    = errors.New("data file not saved")
)

// InvalidAmountError is returned when an amount is zero or negative.
type InvalidAmountError struct {
	Amount Amount
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %s", e.Amount.String())
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// NotFoundError is returned by delete when no record carries the id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DataCorruptionError is returned when the data file exists but cannot be
// read or decoded.
type DataCorruptionError struct {
	Path string
	Err  error
}

func (e *DataCorruptionError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *DataCorruptionError) Unwrap() error { return e.Err }

func (e *DataCorruptionError) Is(target error) bool { return target == ErrDataCorruption }

// PersistenceError is returned when records cannot be written out. A failed
// write may leave the target truncated.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
