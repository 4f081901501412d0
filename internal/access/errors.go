package access

import "errors"

var (
	// ErrUnauthenticated means the operation needs a signed-in caller.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotFound means the referenced resource or request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means a decision was attempted on a non-pending request.
	ErrInvalidState = errors.New("request already decided")
	// ErrForbidden means the decision engine rejected the access attempt.
	ErrForbidden = errors.New("access denied")
)
