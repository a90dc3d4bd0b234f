package llm

import "errors"

var (
	ErrRequestFailed = errors.New("model request failed")
	ErrEmptyResponse = errors.New("model returned an empty response")
)
