// errors.go — the dispatcher-level error taxonomy from spec §7.
package dispatcher

import (
	"fmt"
	"regexp"
)

// ErrElementNotFound is raised when a selector resolves to nothing; Hints
// carries up to 5 synthesized alternatives from findAlternatives.
type ErrElementNotFound struct {
	Selector string
	Hints    []ElementHint
}

func (e *ErrElementNotFound) Error() string {
	return fmt.Sprintf("element not found for selector %q", e.Selector)
}

// ErrDebuggerConflict surfaces a CDP-attach conflict with a remediation
// hint, classified from an untyped peer error string by pattern match
// (spec §7's literal rule: /debugger|attach|session/ ∧ /another|conflict|denied/).
type ErrDebuggerConflict struct {
	Message string
}

func (e *ErrDebuggerConflict) Error() string {
	return e.Message + " (another tool may already have a debugger attached to this tab; detach it and retry)"
}

var (
	debuggerConflictSubject = regexp.MustCompile(`(?i)debugger|attach|session`)
	debuggerConflictVerb    = regexp.MustCompile(`(?i)another|conflict|denied`)
)

// classifyDebuggerConflict detects the debugger-conflict pattern spec §7
// names explicitly, so a raw peer error string can be upgraded to a typed
// ErrDebuggerConflict before it reaches the agent.
func classifyDebuggerConflict(message string) error {
	if debuggerConflictSubject.MatchString(message) && debuggerConflictVerb.MatchString(message) {
		return &ErrDebuggerConflict{Message: message}
	}
	return nil
}

// ErrUnknownTool and ErrUnknownAction are spec §7's "should never occur on
// correct usage" cases, kept typed so tests can assert on them precisely.
type ErrUnknownTool struct{ Tool string }

func (e *ErrUnknownTool) Error() string { return "unknown tool: " + e.Tool }

type ErrUnknownAction struct {
	Tool   string
	Action string
}

func (e *ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action %q for tool %q", e.Action, e.Tool)
}

// ErrSecureEvalBlocked names the layer that blocked evaluation (spec §4.5,
// §7).
type ErrSecureEvalBlocked struct {
	Layer  string
	Reason string
}

func (e *ErrSecureEvalBlocked) Error() string {
	return fmt.Sprintf("[%s] blocked: %s", e.Layer, e.Reason)
}

// classifyHandlerError turns any error a handler returns into the shape
// spec §7 wants surfaced: debugger-conflict strings get upgraded, anything
// else passes through unchanged. Tool handlers call this once at their
// outermost catch point.
func classifyHandlerError(err error) error {
	if err == nil {
		return nil
	}
	if conflict := classifyDebuggerConflict(err.Error()); conflict != nil {
		return conflict
	}
	return err
}
