// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package bxlog

import (
	"strings"

	"github.com/relaycore/bxlog/bxerr"
)

// Rule pairs a logger-name prefix with the level that should apply to
// any logger whose name carries that prefix.
type Rule struct {
	Prefix string
	Level  Level
}

// FilterSet is an ordered sequence of Rules. The rule that applies to a
// given logger name is the last one in the sequence whose Prefix is a
// (plain string, not dotted-segment) prefix of that name. An empty
// Prefix matches every name.
type FilterSet []Rule

// Parse parses a filter string of the form "rule(,rule)*" where
// "rule := prefix ':' level", prefix matches [A-Za-z0-9_.]* (the empty
// string permitted) and level is a level name or decimal digit string
// accepted by ParseLevel. It returns a BadConfig *bxerr.Error for a
// malformed rule and a BadLevel one for an unparseable level.
func Parse(s string) (FilterSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	set := make(FilterSet, 0, len(parts))
	for _, part := range parts {
		rule, err := parseRule(part)
		if err != nil {
			return nil, err
		}
		set = append(set, rule)
	}
	return set, nil
}

func parseRule(s string) (Rule, error) {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return Rule{}, bxerr.Newf(bxerr.BadConfig, "malformed filter rule %q: missing ':'", s)
	}

	prefix := s[:idx]
	if !validPrefix(prefix) {
		return Rule{}, bxerr.Newf(bxerr.BadConfig, "malformed filter rule %q: invalid prefix", s)
	}

	level, err := ParseLevel(s[idx+1:])
	if err != nil {
		return Rule{}, err
	}
	return Rule{Prefix: prefix, Level: level}, nil
}

func validPrefix(prefix string) bool {
	for _, r := range prefix {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// Apply returns the level that should apply to the given logger name per
// the Filter Set's last-match-wins rule. The bool result is false if no
// rule in the set matches, in which case the caller should leave the
// logger's current level unchanged.
func (fs FilterSet) Apply(name string) (Level, bool) {
	matched := false
	var level Level
	for _, rule := range fs {
		if strings.HasPrefix(name, rule.Prefix) {
			level = rule.Level
			matched = true
		}
	}
	return level, matched
}

// String reconstructs the canonical filter string for fs, e.g.
// ":warning,net:info,net.tls:debug".
func (fs FilterSet) String() string {
	parts := make([]string, len(fs))
	for i, rule := range fs {
		parts[i] = rule.Prefix + ":" + strings.ToLower(rule.Level.String())
	}
	return strings.Join(parts, ",")
}
