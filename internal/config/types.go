package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pvaler/subsh/internal/alias"
	"github.com/pvaler/subsh/internal/proc"
)

// Document mirrors the subsh.yaml configuration structure.
type Document struct {
	Version  string                `yaml:"version"`
	Settings Settings              `yaml:"settings"`
	Logging  LoggingSpec           `yaml:"logging"`
	Aliases  map[string]*AliasSpec `yaml:"aliases"`
}

// Settings carries the execution policy flags. Pointer fields distinguish
// "omitted" from an explicit false.
type Settings struct {
	// ThreadSubprocs permits drain-worker-backed executors. Defaults to
	// true when omitted.
	ThreadSubprocs *bool `yaml:"threadSubprocs"`
	// CaptureAlways extends capturing to hidden-interactive runs.
	CaptureAlways bool `yaml:"captureAlways"`
	// Interactive overrides terminal detection when set.
	Interactive *bool `yaml:"interactive"`
	// RaiseSubprocError escalates non-zero final exit codes to errors.
	RaiseSubprocError bool `yaml:"raiseSubprocError"`
	// SubprocOutputFormat is "stream_lines" (default) or "list_lines".
	SubprocOutputFormat string `yaml:"subprocOutputFormat"`
}

// LoggingSpec configures the engine's diagnostic log sink.
type LoggingSpec struct {
	// Level is a zerolog level name; empty means info.
	Level string `yaml:"level"`
	// Format is "console" (default) or "json".
	Format string `yaml:"format"`
}

// AliasSpec is one alias binding in its configuration form. The YAML value
// may be a scalar (command string), a sequence (token list) or a mapping
// with a modifier block.
type AliasSpec struct {
	Command  string
	Tokens   []string
	Modifier *ModifierSpec
}

// ModifierSpec mirrors the modifier mapping form of an alias value.
type ModifierSpec struct {
	Threadable      *bool `yaml:"threadable"`
	ForceThreadable *bool `yaml:"forceThreadable"`
}

// aliasMapping is the mapping form of an alias value.
type aliasMapping struct {
	Modifier *ModifierSpec `yaml:"modifier"`
}

// UnmarshalYAML accepts the three alias value shapes.
func (a *AliasSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var cmd string
		if err := value.Decode(&cmd); err != nil {
			return err
		}
		if cmd == "" {
			return fmt.Errorf("line %d: alias command must not be empty", value.Line)
		}
		a.Command = cmd
		return nil
	case yaml.SequenceNode:
		var tokens []string
		if err := value.Decode(&tokens); err != nil {
			return err
		}
		if len(tokens) == 0 {
			return fmt.Errorf("line %d: alias token list must not be empty", value.Line)
		}
		a.Tokens = tokens
		return nil
	case yaml.MappingNode:
		var m aliasMapping
		if err := value.Decode(&m); err != nil {
			return err
		}
		if m.Modifier == nil {
			return fmt.Errorf("line %d: alias mapping requires a modifier block", value.Line)
		}
		a.Modifier = m.Modifier
		return nil
	default:
		return fmt.Errorf("line %d: alias must be a string, a list or a modifier mapping", value.Line)
	}
}

// Target converts the configuration form into a registry binding.
func (a *AliasSpec) Target() alias.Target {
	switch {
	case a.Command != "":
		return alias.Command(a.Command)
	case a.Tokens != nil:
		return alias.Tokens(a.Tokens)
	case a.Modifier != nil:
		return alias.Modifier{
			Threadable:      a.Modifier.Threadable,
			ForceThreadable: a.Modifier.ForceThreadable,
		}
	default:
		return nil
	}
}

// Registry builds an alias registry from the configured bindings.
func (d *Document) Registry() *alias.Registry {
	reg := alias.NewRegistry()
	for name, spec := range d.Aliases {
		if spec == nil {
			continue
		}
		if target := spec.Target(); target != nil {
			reg.Set(name, target)
		}
	}
	return reg
}

// Policy converts the settings into an execution policy snapshot.
// interactiveDefault supplies the terminal-detection result used when the
// interactive flag was omitted.
func (s Settings) Policy(interactiveDefault bool) (proc.Policy, error) {
	format, err := proc.ParseOutputFormat(s.SubprocOutputFormat)
	if err != nil {
		return proc.Policy{}, err
	}
	policy := proc.Policy{
		ThreadSubprocs:    true,
		CaptureAlways:     s.CaptureAlways,
		Interactive:       interactiveDefault,
		RaiseSubprocError: s.RaiseSubprocError,
		OutputFormat:      format,
	}
	if s.ThreadSubprocs != nil {
		policy.ThreadSubprocs = *s.ThreadSubprocs
	}
	if s.Interactive != nil {
		policy.Interactive = *s.Interactive
	}
	return policy, nil
}
