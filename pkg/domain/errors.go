package domain

import "errors"

// ErrFlowNotFound is returned when a flow id cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrNodeNotFound is returned when an operation references a node id that does not exist.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node whose id is already taken.
var ErrDuplicateNode = errors.New("duplicate node id")

// ErrNothingToUndo is returned by Undo at the beginning of the history.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo at the end of the history.
var ErrNothingToRedo = errors.New("nothing to redo")

// ErrInvalidChoice is returned when a preview choice does not match any option.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrConversationOver is returned when choosing after the conversation reached a terminal node.
var ErrConversationOver = errors.New("conversation is over")
