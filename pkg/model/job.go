package model

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CommandSeparator joins command fragments for display only.
const CommandSeparator = " \\\n"

// Job is a named shell command with optional input and output file expectations.
type Job struct {
	// Name is the unique identifier of the job, also the key into the stats store.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Input is the file this job reads. Empty means the job can always run.
	Input string `json:"input,omitempty" yaml:"input,omitempty" toml:"input,omitempty"`

	// Outputs are the files this job writes.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty" toml:"outputs,omitempty"`

	// Command is a single shell command split over several fragments.
	// Fragments are concatenated without a separator before execution.
	Command []string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`

	// Variables maps template tokens ({key}) to their replacement.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`

	// Overrides names the job this one inherits from.
	Overrides string `json:"overrides,omitempty" yaml:"overrides,omitempty" toml:"overrides,omitempty"`
}

// Conf is an ordered list of jobs plus the reference job used for stats diffs.
type Conf struct {
	Jobs           []Job  `json:"jobs" yaml:"jobs" toml:"jobs"`
	StatsReference string `json:"statsReference,omitempty" yaml:"statsReference,omitempty" toml:"statsReference,omitempty"`
}

// Validate checks the static schema of a single job.
func (j Job) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Name, validation.Required),
		validation.Field(&j.Outputs, validation.Each(validation.Required)),
		validation.Field(&j.Overrides, validation.When(j.Name != "",
			validation.NotIn(j.Name).Error("a job cannot override itself"))),
	)
}

// IsOverriding reports whether the job inherits from another job.
func (j Job) IsOverriding() bool {
	return j.Overrides != ""
}

// ShellCommand returns the command executed by the shell.
func (j Job) ShellCommand() string {
	return strings.Join(j.Command, "")
}

// DisplayCommand returns the command fragments joined with line continuations.
func (j Job) DisplayCommand() string {
	return strings.Join(j.Command, CommandSeparator)
}

// CanRun reports whether the job input is present.
// A job without input can always run.
func (j Job) CanRun() bool {
	if j.Input == "" {
		return true
	}
	return exists(j.Input)
}

// ShouldRun reports whether any output is missing.
// A job without outputs should always run.
func (j Job) ShouldRun() bool {
	if len(j.Outputs) == 0 {
		return true
	}
	for _, out := range j.Outputs {
		if !exists(out) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the job.
func (j Job) Clone() Job {
	c := j
	if j.Outputs != nil {
		c.Outputs = append([]string(nil), j.Outputs...)
	}
	if j.Command != nil {
		c.Command = append([]string(nil), j.Command...)
	}
	if j.Variables != nil {
		c.Variables = make(map[string]string, len(j.Variables))
		for k, v := range j.Variables {
			c.Variables[k] = v
		}
	}
	return c
}

// Names returns the job names in declaration order.
func (c Conf) Names() []string {
	names := make([]string, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		names = append(names, j.Name)
	}
	return names
}

// Lookup returns the job with the given name.
func (c Conf) Lookup(name string) (Job, bool) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Select returns a Conf restricted to the named jobs, in declaration order.
// An empty selection returns the Conf unchanged.
func (c Conf) Select(names []string) (Conf, error) {
	if len(names) == 0 {
		return c, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := c.Lookup(n); !ok {
			return Conf{}, &UnknownJobError{Name: n}
		}
		want[n] = true
	}
	selected := Conf{StatsReference: c.StatsReference}
	for _, j := range c.Jobs {
		if want[j.Name] {
			selected.Jobs = append(selected.Jobs, j)
		}
	}
	return selected, nil
}

// Validate checks every job and the uniqueness of names.
func (c Conf) Validate() error {
	seen := make(map[string]bool, len(c.Jobs))
	for _, j := range c.Jobs {
		if err := j.Validate(); err != nil {
			return &ValidationError{Job: j.Name, Err: err}
		}
		if seen[j.Name] {
			return &DuplicateJobError{Name: j.Name}
		}
		seen[j.Name] = true
	}
	if c.StatsReference != "" && !seen[c.StatsReference] {
		return &UnknownReferenceError{Name: c.StatsReference}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
