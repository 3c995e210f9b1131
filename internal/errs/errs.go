// Package errs defines the taxonomy of structured errors described in §7:
// input/format errors, scenario errors, policy errors, and observation-format
// errors are all recoverable (the caller can errors.As them and decide what
// to do); a NumericError is not recoverable and is raised via panic, since an
// invalid posterior is always a bug rather than a user-facing condition.
package errs

import "fmt"

// InputError reports a malformed or inconsistent input: an unknown contig in
// a BAM/FASTA header, an invalid BCF record, a malformed breakend ALT spec, a
// missing MATEID.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return "input error: " + e.Msg }

// NewInput constructs an *InputError with a formatted message.
func NewInput(format string, args ...interface{}) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// ScenarioError reports a problem with a loaded scenario: a formula
// references an unknown sample, an event omits a VAF range for some sample,
// or a contamination declaration names an unknown sample.
type ScenarioError struct {
	Msg string
}

func (e *ScenarioError) Error() string { return "scenario error: " + e.Msg }

// NewScenario constructs a *ScenarioError with a formatted message.
func NewScenario(format string, args ...interface{}) *ScenarioError {
	return &ScenarioError{Msg: fmt.Sprintf(format, args...)}
}

// PolicyError reports an invalid configuration knob: indel_window too large,
// min_bayes_factor <= 1, a malformed testcase locus, an out-of-range
// candidate index.
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string { return "policy error: " + e.Msg }

// NewPolicy constructs a *PolicyError with a formatted message.
func NewPolicy(format string, args ...interface{}) *PolicyError {
	return &PolicyError{Msg: fmt.Sprintf(format, args...)}
}

// ObservationFormatError reports an observation BCF that cannot be parsed,
// typically because it was not produced by preprocess or carries an
// OBSERVATION_FORMAT_VERSION this build does not understand.
type ObservationFormatError struct {
	Msg string
}

func (e *ObservationFormatError) Error() string { return "observation format error: " + e.Msg }

// NewObservationFormat constructs an *ObservationFormatError with a
// formatted message.
func NewObservationFormat(format string, args ...interface{}) *ObservationFormatError {
	return &ObservationFormatError{Msg: fmt.Sprintf(format, args...)}
}

// NumericError indicates a NaN or otherwise invalid posterior. Per §7 this is
// always a bug, never a recoverable user error, so it is raised with
// PanicNumeric rather than returned.
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string { return "numeric error: " + e.Msg }

// PanicNumeric panics with a *NumericError built from the given message.
func PanicNumeric(format string, args ...interface{}) {
	panic(&NumericError{Msg: fmt.Sprintf(format, args...)})
}
