package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeMissingConfigFile      = "MISSING_CONFIG_FILE"
	CodeUnknownEnvironment     = "UNKNOWN_ENVIRONMENT"
	CodeUnknownPreset          = "UNKNOWN_PRESET"
	CodeStackNotFound          = "STACK_NOT_FOUND"
	CodeConfigCycle            = "CONFIG_CYCLE"
	CodeInvalidStackFilename   = "INVALID_STACK_FILENAME"
	CodeNoSuchService          = "NO_SUCH_SERVICE"
	CodeNoRunningTask          = "NO_RUNNING_TASK"
	CodeNoRunningContainer     = "NO_RUNNING_CONTAINER"
	CodeNodeAddressUnavailable = "NODE_ADDRESS_UNAVAILABLE"
)

// Types ////////////////////////////////////////

type CodedError interface {
	error
	Code() string
}

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string {
	return e.msg
}

func (e *codedError) Code() string {
	return e.code
}

// Error Creators ///////////////////////////////

// A config file (stack-config.yml, swarm-config.yml, a compose file or an env file) does not exist
func MissingConfigFile(path string) error {
	return &codedError{
		code: CodeMissingConfigFile,
		msg:  fmt.Sprintf("Missing config file: %s", path),
	}
}

// The requested environment is not declared in stack-config.yml
func UnknownEnvironment(name string) error {
	return &codedError{
		code: CodeUnknownEnvironment,
		msg:  fmt.Sprintf("Unknown environment %q", name),
	}
}

// The requested preset is not declared in swarm-config.yml
func UnknownPreset(name string) error {
	return &codedError{
		code: CodeUnknownPreset,
		msg:  fmt.Sprintf("Unknown preset %q", name),
	}
}

// StackNotFound reports every (name, variant) pair of a preset that no layer defines.
func StackNotFound(preset string, missing ...string) error {
	return &codedError{
		code: CodeStackNotFound,
		msg:  fmt.Sprintf("Preset %q uses stacks that no layer defines: %s", preset, strings.Join(missing, ", ")),
	}
}

// ConfigCycle is returned when an environment extends itself, directly or through its parents.
func ConfigCycle(chain []string) error {
	return &codedError{
		code: CodeConfigCycle,
		msg:  fmt.Sprintf("Environment inheritance cycle: %s", strings.Join(chain, " -> ")),
	}
}

func InvalidStackFilename(filename string) error {
	return &codedError{
		code: CodeInvalidStackFilename,
		msg:  fmt.Sprintf("Invalid stack filename %q, expected <name>_<variant>.stack.yml", filename),
	}
}

func NoSuchService(service string, environment string) error {
	return &codedError{
		code: CodeNoSuchService,
		msg:  fmt.Sprintf("No such service %q in environment %q", service, environment),
	}
}

func NoRunningTask(service string) error {
	return &codedError{
		code: CodeNoRunningTask,
		msg:  fmt.Sprintf("No running task found for service %s", service),
	}
}

func NoRunningContainer(service string) error {
	return &codedError{
		code: CodeNoRunningContainer,
		msg:  fmt.Sprintf("No running container found for service %s", service),
	}
}

// NodeAddressUnavailable means the node running a task advertises no address we can dial.
func NodeAddressUnavailable(nodeID string) error {
	return &codedError{
		code: CodeNodeAddressUnavailable,
		msg:  fmt.Sprintf("Node %s has no reachable address", nodeID),
	}
}

// Helpers //////////////////////////////////////

func IsMissingConfigFile(err error) bool {
	return Code(err) == CodeMissingConfigFile
}

func IsUnknownEnvironment(err error) bool {
	return Code(err) == CodeUnknownEnvironment
}

func IsUnknownPreset(err error) bool {
	return Code(err) == CodeUnknownPreset
}

func IsStackNotFound(err error) bool {
	return Code(err) == CodeStackNotFound
}

func IsConfigCycle(err error) bool {
	return Code(err) == CodeConfigCycle
}

func IsInvalidStackFilename(err error) bool {
	return Code(err) == CodeInvalidStackFilename
}

func IsNoSuchService(err error) bool {
	return Code(err) == CodeNoSuchService
}

func IsNoRunningTask(err error) bool {
	return Code(err) == CodeNoRunningTask
}

func IsNoRunningContainer(err error) bool {
	return Code(err) == CodeNoRunningContainer
}

func IsNodeAddressUnavailable(err error) bool {
	return Code(err) == CodeNodeAddressUnavailable
}

// IsNotRunning is true for the lookups that end a command quietly instead of failing it.
func IsNotRunning(err error) bool {
	return IsNoRunningTask(err) || IsNoRunningContainer(err)
}

// Return the error code, or the empty string
func Code(err error) string {
	var cerr CodedError
	if errors.As(err, &cerr) {
		return cerr.Code()
	}

	return ""
}
