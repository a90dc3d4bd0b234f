package broker

import "errors"

var (
	ErrEmptySubject  = errors.New("subject is empty")
	ErrPublishFailed = errors.New("publish failed")
)
