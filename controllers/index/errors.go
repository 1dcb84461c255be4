package index

import (
	"fmt"
	"github.com/go-errors/errors"
)

type sentinel string

func (s sentinel) Error() string {
	return string(s)
}

const (
	//ErrInvalidArgument reports caller misuse, nothing was sent to the cluster
	ErrInvalidArgument sentinel = "invalid argument"

	//ErrClusterQuery is matched by every failed read
	ErrClusterQuery sentinel = "cluster query failed"
	//ErrClusterWrite is matched by every failed mutation
	ErrClusterWrite sentinel = "cluster write failed"

	ErrAliasQuery    sentinel = "alias query failed"
	ErrIndexCreation sentinel = "index creation failed"
	ErrIndexDeletion sentinel = "index deletion failed"
	ErrAliasUpdate   sentinel = "alias update failed"
	ErrDocumentIndex sentinel = "document index failed"
	ErrBulkRequest   sentinel = "bulk request failed"
)

var errorClasses = map[sentinel]sentinel{
	ErrAliasQuery:    ErrClusterQuery,
	ErrIndexCreation: ErrClusterWrite,
	ErrIndexDeletion: ErrClusterWrite,
	ErrAliasUpdate:   ErrClusterWrite,
	ErrDocumentIndex: ErrClusterWrite,
	ErrBulkRequest:   ErrClusterWrite,
}

//OperationError is a cluster call that failed. errors.Is matches both its Kind and the Kind's class,
//the cluster error stays reachable through Unwrap.
type OperationError struct {
	Kind   sentinel
	Op     string
	Target string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Target, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func (e *OperationError) Is(target error) bool {
	kind, ok := target.(sentinel)
	if !ok {
		return false
	}
	return kind == e.Kind || kind == errorClasses[e.Kind]
}

func operationError(kind sentinel, op string, target string, err error) error {
	return errors.Wrap(&OperationError{
		Kind:   kind,
		Op:     op,
		Target: target,
		Err:    err,
	}, 1)
}

func invalidArgument(format string, args ...interface{}) error {
	return errors.WrapPrefix(ErrInvalidArgument, fmt.Sprintf(format, args...), 1)
}
