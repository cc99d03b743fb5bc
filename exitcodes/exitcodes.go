// Package exitcodes defines the exit codes used by op-verifier.
package exitcodes

// Exit code constants used by op-verifier:
//
// * Success (0): every discovered test case matched its expected output
// * TestFailure (1): at least one case was missing, errored or mismatched
// * RuntimeErr (2): the harness itself could not run, e.g. bad arguments
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
