package config

import "fmt"

// ParseError reports a config file that could not be read, decoded or bound.
// It is fatal to plugin load.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
