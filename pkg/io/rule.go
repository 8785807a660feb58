package io

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	"github.com/matzehuels/graphprod/pkg/production"
)

// RuleFile is the TOML form of a production.
type RuleFile struct {
	Name        string            `toml:"name"`
	Target      string            `toml:"target"`
	Replacement string            `toml:"replacement"`
	Embedding   map[string]string `toml:"embedding"`
}

// ReadRuleFile decodes a TOML rule file without loading the replacement.
// Unknown keys are rejected so typos in embedding tables surface early.
func ReadRuleFile(path string) (*RuleFile, error) {
	var rf RuleFile
	md, err := toml.DecodeFile(path, &rf)
	if err != nil {
		if isNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read rule %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, err, "decode rule %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidRule, "rule %s: unknown key %q", path, undecoded[0].String())
	}
	if err := errors.ValidateLabel(rf.Target); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, err, "rule %s: target", path)
	}
	if err := errors.ValidatePath(rf.Replacement); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, err, "rule %s: replacement", path)
	}
	if rf.Name == "" {
		rf.Name = trimExt(filepath.Base(path))
	}
	return &rf, nil
}

// LoadRule reads a rule file and loads its replacement graph, resolving the
// replacement path relative to the rule file's directory. The replacement is
// canonicalized, so vertex 0 is the first node declared in it.
func LoadRule(path string) (*production.Rule, error) {
	rf, err := ReadRuleFile(path)
	if err != nil {
		return nil, err
	}
	rhs, err := LoadCanonical(ResolveRelative(path, rf.Replacement))
	if err != nil {
		return nil, err
	}
	return rf.Rule(rhs), nil
}

// Rule builds a production from the file and an already loaded replacement.
func (rf *RuleFile) Rule(replacement *graph.Graph) *production.Rule {
	emb := make(map[string]string, len(rf.Embedding))
	for k, v := range rf.Embedding {
		emb[k] = v
	}
	return &production.Rule{
		Name:        rf.Name,
		Target:      rf.Target,
		Replacement: replacement,
		Embedding:   emb,
	}
}

// ResolveRelative resolves ref against the directory of the file at base.
// Absolute refs are returned unchanged.
func ResolveRelative(base, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), ref)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
