package product

import (
	"path"

	"atmoseng/internal/harperr"
)

func newNoSuchVariableError(name string) error {
	return harperr.New(harperr.Operation, "keep: no variable matches %q", name)
}

// MatchesAny reports whether name matches any shell-style pattern (`*`,
// `?`) in patterns, grounded on libharp's glob-style variable selection
// for keep/exclude.
func MatchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// IsWildcard reports whether pattern contains glob metacharacters.
func IsWildcard(pattern string) bool {
	for _, c := range pattern {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}

// KeepVariables retains only variables matching one of the given patterns.
// Per the engine's contract, a non-wildcard pattern with no match is an
// error; a wildcard pattern with no match is not.
func (p *Product) KeepVariables(patterns []string) error {
	matchedLiteral := make(map[string]bool)
	var kept []*Variable
	for _, v := range p.Variables {
		if MatchesAny(v.Name, patterns) {
			kept = append(kept, v)
		}
	}
	for _, pat := range patterns {
		if IsWildcard(pat) {
			continue
		}
		found := false
		for _, v := range kept {
			if v.Name == pat {
				found = true
				break
			}
		}
		matchedLiteral[pat] = found
	}
	for pat, found := range matchedLiteral {
		if !found {
			return newNoSuchVariableError(pat)
		}
	}
	removeSet := make(map[string]bool)
	for _, v := range p.Variables {
		keepIt := false
		for _, k := range kept {
			if k == v {
				keepIt = true
				break
			}
		}
		if !keepIt {
			removeSet[v.Name] = true
		}
	}
	for name := range removeSet {
		if err := p.RemoveVariable(name); err != nil {
			return err
		}
	}
	return nil
}

// ExcludeVariables removes variables matching any of the given patterns.
// Misses (no variable matches a given pattern) are silently ignored.
func (p *Product) ExcludeVariables(patterns []string) error {
	var toRemove []string
	for _, v := range p.Variables {
		if MatchesAny(v.Name, patterns) {
			toRemove = append(toRemove, v.Name)
		}
	}
	for _, name := range toRemove {
		if err := p.RemoveVariable(name); err != nil {
			return err
		}
	}
	return nil
}
