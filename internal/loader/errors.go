package loader

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile         = errors.New("file has no rows")
	ErrNoHeader          = errors.New("no recognizable header row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// LoadError is returned for every failure that prevents a dataset from
// being built.
type LoadError struct {
	Path string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(path, op string, err error) *LoadError {
	return &LoadError{Path: path, Op: op, Err: err}
}
