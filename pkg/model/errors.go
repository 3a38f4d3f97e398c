package model

import "fmt"

// ConfigNotFoundError is returned when the config file does not exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

// ConfigUnreadableError is returned when the config path exists but cannot be read.
type ConfigUnreadableError struct {
	Path string
	Err  error
}

func (e *ConfigUnreadableError) Error() string {
	return fmt.Sprintf("config file not readable: %s: %v", e.Path, e.Err)
}

func (e *ConfigUnreadableError) Unwrap() error { return e.Err }

// InvalidConfigError is returned when the config document cannot be decoded.
type InvalidConfigError struct {
	Path string
	Err  error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid configuration file: %s: %v", e.Path, e.Err)
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// ValidationError describes a schema violation in a named job.
type ValidationError struct {
	Job string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("invalid job: %v", e.Err)
	}
	return fmt.Sprintf("invalid job %q: %v", e.Job, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DuplicateJobError is returned when two jobs share a name.
type DuplicateJobError struct {
	Name string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("duplicate job name %q", e.Name)
}

// UnknownReferenceError is returned when statsReference names no declared job.
type UnknownReferenceError struct {
	Name string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("stats reference %q is not a declared job", e.Name)
}

// OverrideTargetMissingError is returned when an overriding job names a job that is not declared.
type OverrideTargetMissingError struct {
	Job    string
	Target string
}

func (e *OverrideTargetMissingError) Error() string {
	return fmt.Sprintf("job %q overrides unknown job %q", e.Job, e.Target)
}

// InvalidOverrideChainError is returned when an overriding job targets another overriding job.
type InvalidOverrideChainError struct {
	Job    string
	Target string
}

func (e *InvalidOverrideChainError) Error() string {
	return fmt.Sprintf("job %q overrides %q which itself overrides another job", e.Job, e.Target)
}

// UnresolvedPlaceholderError is returned when a command keeps a {token} after expansion.
type UnresolvedPlaceholderError struct {
	Job   string
	Token string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("job %q: unresolved placeholder %s", e.Job, e.Token)
}

// UnknownJobError is returned when a job selected by name is not in the config.
type UnknownJobError struct {
	Name string
}

func (e *UnknownJobError) Error() string {
	return fmt.Sprintf("job %q not found", e.Name)
}
