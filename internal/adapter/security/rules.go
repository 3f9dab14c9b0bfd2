package security

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRulesYAML []byte

// RuleSpec is one signature as written in a rules file
type RuleSpec struct {
	Name     string   `yaml:"name"`
	Pattern  string   `yaml:"pattern"`
	Keywords []string `yaml:"keywords,omitempty"`
}

type RuleSetSpec struct {
	Version    string     `yaml:"version"`
	SQL        []RuleSpec `yaml:"sql"`
	XSS        []RuleSpec `yaml:"xss"`
	ProbePaths []RuleSpec `yaml:"probe_paths"`
	BotAgents  []string   `yaml:"bot_agents"`
}

type rule struct {
	re       *regexp.Regexp
	name     string
	keywords []string
}

// match runs the keyword prefilter against the lower-cased value first, the
// regexp only when one of the keywords is present
func (r *rule) match(normalised, lowered string) bool {
	if len(r.keywords) > 0 {
		found := false
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return r.re.MatchString(normalised)
}

// RuleSet is an immutable, compiled signature set. Scanners swap whole sets
// rather than editing one in place.
type RuleSet struct {
	Version    string
	Source     string
	sql        []rule
	xss        []rule
	probePaths []rule
	botAgents  []string
}

var errEmptyRuleSet = errors.New("rule set must define at least one sql and one xss rule")

func ParseRuleSet(data []byte, source string) (*RuleSet, error) {
	var spec RuleSetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", source, err)
	}
	return compileRuleSet(spec, source)
}

func compileRuleSet(spec RuleSetSpec, source string) (*RuleSet, error) {
	if strings.TrimSpace(spec.Version) == "" {
		return nil, fmt.Errorf("rules %s: version is required", source)
	}
	if len(spec.SQL) == 0 || len(spec.XSS) == 0 {
		return nil, fmt.Errorf("rules %s: %w", source, errEmptyRuleSet)
	}

	rs := &RuleSet{Version: spec.Version, Source: source}

	var err error
	if rs.sql, err = compileRules("sql", spec.SQL); err != nil {
		return nil, fmt.Errorf("rules %s: %w", source, err)
	}
	if rs.xss, err = compileRules("xss", spec.XSS); err != nil {
		return nil, fmt.Errorf("rules %s: %w", source, err)
	}
	if rs.probePaths, err = compileRules("probe_paths", spec.ProbePaths); err != nil {
		return nil, fmt.Errorf("rules %s: %w", source, err)
	}

	for _, agent := range spec.BotAgents {
		if agent = strings.ToLower(strings.TrimSpace(agent)); agent != "" {
			rs.botAgents = append(rs.botAgents, agent)
		}
	}
	return rs, nil
}

func compileRules(group string, specs []RuleSpec) ([]rule, error) {
	compiled := make([]rule, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))

	for i, spec := range specs {
		name := spec.Name
		if name == "" {
			return nil, fmt.Errorf("%s rule #%d has no name", group, i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%s rule %q is defined twice", group, name)
		}
		seen[name] = struct{}{}

		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s rule %q: %w", group, name, err)
		}

		keywords := make([]string, 0, len(spec.Keywords))
		for _, kw := range spec.Keywords {
			if kw = strings.ToLower(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}

		compiled = append(compiled, rule{name: name, re: re, keywords: keywords})
	}
	return compiled, nil
}

// DefaultRuleSet is the signature set compiled into the binary
func DefaultRuleSet() *RuleSet {
	rs, err := ParseRuleSet(defaultRulesYAML, "builtin")
	if err != nil {
		panic(fmt.Sprintf("builtin rules do not compile: %v", err))
	}
	return rs
}

// LoadRuleSet reads a rules file, falling back to the builtin set for an
// empty path
func LoadRuleSet(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRuleSet(data, path)
}

// Counts reports how many signatures each group holds, for startup logs
func (rs *RuleSet) Counts() map[string]int {
	return map[string]int{
		"sql":         len(rs.sql),
		"xss":         len(rs.xss),
		"probe_paths": len(rs.probePaths),
		"bot_agents":  len(rs.botAgents),
	}
}
