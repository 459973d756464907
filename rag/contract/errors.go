package contract

import "errors"

var (
	ErrRetrieval       = errors.New("document retrieval failed")
	ErrCompletion      = errors.New("chat completion failed")
	ErrPluginNotFound  = errors.New("plugin is not registered")
	ErrPluginExecution = errors.New("plugin execution failed")
	ErrValidation      = errors.New("validation failed")
)
