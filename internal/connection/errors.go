package connection

// ErrMissingClientID is returned by Enable when client_id is empty or
// all-whitespace (spec §4.2, §7).
type ErrMissingClientID struct{}

func (e *ErrMissingClientID) Error() string { return "missing_client_id" }

// ErrAlreadyEnabled is returned by Enable from active/connected state
// (spec §4.2's state table: "return already enabled").
type ErrAlreadyEnabled struct{}

func (e *ErrAlreadyEnabled) Error() string { return "already_enabled" }

// ErrAlreadyDisabled is returned by Disable from passive state.
type ErrAlreadyDisabled struct{}

func (e *ErrAlreadyDisabled) Error() string { return "already_disabled" }

// ErrUnknownExperiment describes an experiment name outside the closed
// catalog (spec §4.3, §7). Nothing in this package returns it: the
// experimental_features tool reports the registry's own
// experiments.ErrUnknownExperiment.
type ErrUnknownExperiment struct{ Name string }

func (e *ErrUnknownExperiment) Error() string { return "unknown_experiment: " + e.Name }
