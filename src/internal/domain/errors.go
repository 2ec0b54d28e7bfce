package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrValidation = errors.New("Validation failed")
var ErrStateConflict = errors.New("Operation not allowed for current account status")
var ErrLimitExceeded = errors.New("Single transaction limit exceeded")
var ErrConsistencyViolation = errors.New("Embedded history is inconsistent with the transaction log")
var ErrLockTimeout = errors.New("Timed out acquiring account lock")
var ErrStoreFailure = errors.New("Persistence failure")
