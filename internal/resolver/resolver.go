// Package resolver expands job command templates and flattens override chains.
package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/me/jobrun/pkg/model"
)

// placeholderRe matches template tokens such as {input} or {cc_flags}.
// Shell brace expansions like {a..c} or {1,2} never match.
var placeholderRe = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// Resolve returns a new Conf where every job is expanded and every override
// is merged with its target. Jobs keep their declaration order.
//
// An overriding job must target a declared job that does not itself override
// another one. The whole resolution fails on the first broken job so a bad
// config never runs partially.
func Resolve(conf model.Conf) (model.Conf, error) {
	declared := make(map[string]model.Job, len(conf.Jobs))
	for _, j := range conf.Jobs {
		declared[j.Name] = j
	}

	jobs := make([]model.Job, 0, len(conf.Jobs))
	for _, j := range conf.Jobs {
		resolved := j
		if j.IsOverriding() {
			target, ok := declared[j.Overrides]
			if !ok {
				return model.Conf{}, &model.OverrideTargetMissingError{Job: j.Name, Target: j.Overrides}
			}
			if target.IsOverriding() {
				return model.Conf{}, &model.InvalidOverrideChainError{Job: j.Name, Target: j.Overrides}
			}
			resolved = Override(j, target)
		}
		if tok := Unresolved(resolved); tok != "" {
			return model.Conf{}, &model.UnresolvedPlaceholderError{Job: resolved.Name, Token: tok}
		}
		jobs = append(jobs, Expand(resolved))
	}

	return model.Conf{Jobs: jobs, StatsReference: conf.StatsReference}, nil
}

// Override merges job on top of base.
//
// The name always comes from job. Input, outputs and command come from job
// when set, otherwise from base. Variables are merged with job entries
// winning. The result no longer overrides anything.
func Override(job, base model.Job) model.Job {
	merged := base.Clone()
	merged.Name = job.Name
	merged.Overrides = ""

	if job.Input != "" {
		merged.Input = job.Input
	}
	if len(job.Outputs) > 0 {
		merged.Outputs = append([]string(nil), job.Outputs...)
	}
	if len(job.Command) > 0 {
		merged.Command = append([]string(nil), job.Command...)
	}
	if len(job.Variables) > 0 && merged.Variables == nil {
		merged.Variables = make(map[string]string, len(job.Variables))
	}
	for k, v := range job.Variables {
		merged.Variables[k] = v
	}
	return merged
}

// Expand substitutes template tokens in the job command.
//
// Built-in tokens are {name}, {input} (shell-escaped, empty when unset) and
// {outputs} (each path shell-escaped, space separated). They take precedence
// over user variables with the same key. Substitution is a single pass:
// replacement values are never scanned again.
func Expand(job model.Job) model.Job {
	r := strings.NewReplacer(replacementSet(job)...)

	expanded := job.Clone()
	for i, frag := range job.Command {
		expanded.Command[i] = r.Replace(frag)
	}
	return expanded
}

// Unresolved returns the first template token of the unexpanded job command
// that Expand has no value for, or "".
// Text the shell owns is ignored: ${VAR} parameters and anything inside
// single quotes, such as awk '{print}'.
func Unresolved(job model.Job) string {
	// Fragments form one shell command, so quotes may span them.
	cmd := job.ShellCommand()
	quoted := singleQuoted(cmd)
	for _, loc := range placeholderRe.FindAllStringIndex(cmd, -1) {
		if loc[0] > 0 && cmd[loc[0]-1] == '$' {
			continue
		}
		if quoted[loc[0]] {
			continue
		}
		tok := cmd[loc[0]:loc[1]]
		if !known(job, tok[1:len(tok)-1]) {
			return tok
		}
	}
	return ""
}

// singleQuoted marks the bytes of s that sit inside a single-quoted shell
// string. Quotes inside double quotes or escaped with a backslash are literal.
func singleQuoted(s string) []bool {
	marks := make([]bool, len(s))
	var inSingle, inDouble, escaped bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			} else {
				marks[i] = true
			}
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inDouble = !inDouble
		case c == '\'' && !inDouble:
			inSingle = true
		}
	}
	return marks
}

func known(job model.Job, key string) bool {
	switch key {
	case "name", "input", "outputs":
		return true
	}
	_, ok := job.Variables[key]
	return ok
}

// replacementSet returns old/new pairs for strings.NewReplacer, built-ins first.
func replacementSet(job model.Job) []string {
	input := ""
	if job.Input != "" {
		input = shellescape.Quote(job.Input)
	}
	outputs := make([]string, len(job.Outputs))
	for i, out := range job.Outputs {
		outputs[i] = shellescape.Quote(out)
	}

	pairs := []string{
		token("name"), job.Name,
		token("input"), input,
		token("outputs"), strings.Join(outputs, " "),
	}

	keys := make([]string, 0, len(job.Variables))
	for k := range job.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, token(k), job.Variables[k])
	}
	return pairs
}

func token(key string) string {
	return "{" + key + "}"
}
