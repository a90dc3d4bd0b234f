package graph

import "errors"

var (
	ErrDuplicateNode = errors.New("node already registered")
	ErrUnknownNode   = errors.New("unknown node")
	ErrNilNode       = errors.New("nil node")
	ErrNoEntryPoint  = errors.New("entry point not set")
	ErrNoExitPoint   = errors.New("exit point not set")
	ErrNoRoute       = errors.New("no edge matched")
	ErrStepLimit     = errors.New("step limit exceeded")
	ErrNodePanic     = errors.New("node panicked")
)
