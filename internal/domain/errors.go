package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable = errors.New("backup storage unavailable")
	ErrDumpFailed         = errors.New("dump failed")
	ErrRestoreFailed      = errors.New("restore failed")
	ErrNoBackupAvailable  = errors.New("no backup available")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrBusy               = errors.New("another backup or restore is in progress")
)

// CommandError reports a failed dump or restore invocation. Detail holds the
// tool's diagnostic output when there was any.
type CommandError struct {
	Op     string
	Detail string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
}

// Unwrap yields the sentinel of the operation, if it has one, and the cause.
func (e *CommandError) Unwrap() []error {
	var errs []error
	switch e.Op {
	case "dump":
		errs = append(errs, ErrDumpFailed)
	case "restore":
		errs = append(errs, ErrRestoreFailed)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorDetail returns the human readable detail carried by err.
func ErrorDetail(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Detail != "" {
		return cmdErr.Detail
	}
	return err.Error()
}
