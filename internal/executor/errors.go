package executor

import "github.com/cockroachdb/errors"

// Error classes. Operators never retry or swallow a child failure; use
// errors.Is against these markers to classify what surfaced.
var (
	// ErrExecution marks failures of a child source or of storage.
	ErrExecution = errors.New("execution error")
	// ErrTransactionConflict marks aborts raised by concurrency control.
	ErrTransactionConflict = errors.New("transaction aborted")
	// ErrProtocolViolation marks misuse of the iterator lifecycle, such as
	// calling Next before Open.
	ErrProtocolViolation = errors.New("iterator protocol violation")
)

// ExecutionErrorf creates a new error marked with ErrExecution.
func ExecutionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrExecution)
}

// TransactionConflictf creates a new error marked with ErrTransactionConflict.
func TransactionConflictf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrTransactionConflict)
}

// markExecution wraps a storage error and marks it with ErrExecution.
func markExecution(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrExecution)
}

func protocolViolationf(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedf(format, args...), ErrProtocolViolation)
}
