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

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wso2/api-platform/gateway/community-board/internal/routing"
)

var realtimePrefixes = []string{"/ws", "/events", "/socket.io"}

type routeOptions struct {
	apiPrefix string
	rules     []string
}

// RouteListing is one strategy rule.
type RouteListing struct {
	Prefix   string `json:"prefix"`
	Strategy string `json:"strategy"`
}

func (o *routeOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.apiPrefix, "api-prefix", "/api", "path prefix answered network-first")
	cmd.Flags().StringArrayVar(&o.rules, "rule", nil, "extra strategy rule as PREFIX=STRATEGY (repeatable)")
}

// table builds the default rules and applies --rule overrides on top.
func (o *routeOptions) table() (*routing.Table, error) {
	t := routing.NewDefaultTable(o.apiPrefix, realtimePrefixes...)
	for _, text := range o.rules {
		r, err := routing.ParseRule(text)
		if err != nil {
			return nil, err
		}
		t.Add(r)
	}
	return t, nil
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &routeOptions{}

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the strategy table the proxy would use",
		Long: `Prints every path prefix rule with its cache strategy. Paths matching no
rule are served stale-while-revalidate. Non-GET requests always pass
through.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.table()
			if err != nil {
				return err
			}
			return writeRoutes(cmd.OutOrStdout(), rootOpts.Format, t.Rules())
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func writeRoutes(w io.Writer, format string, rules []routing.Rule) error {
	out := make([]RouteListing, 0, len(rules))
	for _, r := range rules {
		out = append(out, RouteListing{Prefix: r.Prefix, Strategy: r.Strategy.String()})
	}
	if format == "json" {
		return json.NewEncoder(w).Encode(out)
	}
	for _, r := range out {
		if _, err := fmt.Fprintf(w, "%-12s %s\n", r.Prefix, r.Strategy); err != nil {
			return err
		}
	}
	return nil
}
