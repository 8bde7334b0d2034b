// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package routing

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// Strategy is how the cache controller answers an intercepted request.
type Strategy int

const (
	StaleWhileRevalidate Strategy = iota
	NetworkFirst
	PassThrough
)

func (s Strategy) String() string {
	switch s {
	case NetworkFirst:
		return "network-first"
	case PassThrough:
		return "pass-through"
	default:
		return "stale-while-revalidate"
	}
}

// ParseStrategy accepts the names printed by Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{StaleWhileRevalidate, NetworkFirst, PassThrough} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Rule binds a path prefix to a strategy. Prefixes match with a plain
// string prefix test, so "/api" also covers "/apix".
type Rule struct {
	Prefix   string
	Strategy Strategy
}

// Table resolves the strategy for a request by longest matching prefix.
// Paths with no matching rule use stale-while-revalidate.
type Table struct {
	rules sync.Map
}

func NewTable() *Table {
	return &Table{}
}

// NewDefaultTable sends realtime transports straight to the network and
// API traffic network-first.
func NewDefaultTable(apiPrefix string, realtimePrefixes ...string) *Table {
	t := NewTable()
	for _, p := range realtimePrefixes {
		t.Add(Rule{Prefix: p, Strategy: PassThrough})
	}
	t.Add(Rule{Prefix: apiPrefix, Strategy: NetworkFirst})
	return t
}

func (t *Table) Add(rule Rule) {
	t.rules.Store(rule.Prefix, rule)
}

// Lookup never caches anything but GET.
func (t *Table) Lookup(method, path string) Strategy {
	if method != http.MethodGet {
		return PassThrough
	}
	best := Rule{Strategy: StaleWhileRevalidate}
	matched := false
	t.rules.Range(func(_, v any) bool {
		r := v.(Rule)
		if strings.HasPrefix(path, r.Prefix) && (!matched || len(r.Prefix) > len(best.Prefix)) {
			best = r
			matched = true
		}
		return true
	})
	return best.Strategy
}

// ParseRule reads a rule written as PREFIX=STRATEGY.
func ParseRule(text string) (Rule, error) {
	prefix, name, ok := strings.Cut(text, "=")
	if !ok || !strings.HasPrefix(prefix, "/") {
		return Rule{}, fmt.Errorf("invalid rule %q: want /prefix=strategy", text)
	}
	s, err := ParseStrategy(name)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid rule %q: %w", text, err)
	}
	return Rule{Prefix: prefix, Strategy: s}, nil
}

// Rules returns the table ordered by prefix.
func (t *Table) Rules() []Rule {
	var out []Rule
	t.rules.Range(func(_, v any) bool {
		out = append(out, v.(Rule))
		return true
	})
	slices.SortFunc(out, func(a, b Rule) int { return cmp.Compare(a.Prefix, b.Prefix) })
	return out
}
