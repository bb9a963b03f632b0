package bundle

import (
	"fmt"
	"strings"
)

// InputError indicates that the supplied sample path could not be used at
// all: it does not exist, is not readable, or is not a valid archive.
type InputError struct {
	Path    string
	Message string
}

func (e *InputError) Error() string {
	if e == nil {
		return "bundle: invalid sample input"
	}
	return fmt.Sprintf("bundle: invalid sample input %s: %s", e.Path, e.Message)
}

// IncompleteSampleError indicates that the sample folder was readable but is
// missing one or more of the files the QCI upload requires.
type IncompleteSampleError struct {
	SampleName string
	Missing    []string
}

func (e *IncompleteSampleError) Error() string {
	if e == nil {
		return "bundle: sample is missing required files"
	}
	return fmt.Sprintf("bundle: sample %s is missing required files: %s", e.SampleName, strings.Join(e.Missing, ", "))
}
