package chat

import "errors"

// Registry-level failures. All of these are expected and recoverable:
// the dispatcher converts each into an issuer-only error reply and the
// connection stays up.
var (
	// ErrNameTaken is returned when a nickname is already mapped to a
	// live session.
	ErrNameTaken = errors.New("nickname is already in use")

	// ErrNotMember is returned when an operation requires channel
	// membership the caller (or target) does not have.
	ErrNotMember = errors.New("not a channel member")

	// ErrNotOperator is returned when an operation requires channel
	// operator privilege.
	ErrNotOperator = errors.New("not a channel operator")

	// ErrNoSuchChannel is returned when the named channel does not exist.
	ErrNoSuchChannel = errors.New("no such channel")

	// ErrNoSuchTarget is returned when a message target nickname is not
	// currently connected.
	ErrNoSuchTarget = errors.New("no such nick")

	// ErrNoOperator is returned when a channel currently has no operator
	// and the operation requires one.
	ErrNoOperator = errors.New("channel has no operator")
)
