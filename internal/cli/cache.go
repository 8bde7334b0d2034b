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
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/wso2/api-platform/gateway/community-board/pkg/offline"
)

// GenerationListing is one cache generation and its request keys.
type GenerationListing struct {
	Name    string   `json:"name"`
	Current bool     `json:"current"`
	Keys    []string `json:"keys"`
}

// SweepResult reports what a sweep kept and removed.
type SweepResult struct {
	Kept    string   `json:"kept"`
	Removed []string `json:"removed"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and sweep the durable cache",
	}
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheSweepCommand(rootOpts))
	return cmd
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache generations and their entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := offline.OpenBadger(rootOpts.CacheDir)
			if err != nil {
				return err
			}
			defer storage.Close()

			listing, err := listCache(cmd.Context(), storage, rootOpts.BuildID)
			if err != nil {
				return err
			}
			return writeListing(cmd.OutOrStdout(), rootOpts.Format, listing)
		},
	}
}

func newCacheSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete every generation except --build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := offline.OpenBadger(rootOpts.CacheDir)
			if err != nil {
				return err
			}
			defer storage.Close()

			ctx := cmd.Context()
			before, err := storage.Generations(ctx)
			if err != nil {
				return err
			}

			ctrl := offline.NewController(storage, offline.Options{BuildID: rootOpts.BuildID}, rootOpts.logger(cmd.ErrOrStderr()))
			if err := ctrl.OnActivate(ctx); err != nil {
				return err
			}

			result := SweepResult{Kept: ctrl.BuildID(), Removed: []string{}}
			for _, g := range before {
				if g != ctrl.BuildID() {
					result.Removed = append(result.Removed, g)
				}
			}
			return writeSweep(cmd.OutOrStdout(), rootOpts.Format, result)
		},
	}
}

func listCache(ctx context.Context, storage offline.Storage, current string) ([]GenerationListing, error) {
	gens, err := storage.Generations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GenerationListing, 0, len(gens))
	for _, g := range gens {
		keys, err := storage.Keys(ctx, g)
		if err != nil {
			return nil, err
		}
		if keys == nil {
			keys = []string{}
		}
		out = append(out, GenerationListing{Name: g, Current: g == current, Keys: keys})
	}
	return out, nil
}

func writeListing(w io.Writer, format string, listing []GenerationListing) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(listing)
	}
	if len(listing) == 0 {
		_, err := fmt.Fprintln(w, "cache is empty")
		return err
	}
	for _, g := range listing {
		marker := ""
		if g.Current {
			marker = " (current)"
		}
		fmt.Fprintf(w, "%s%s: %d entries\n", g.Name, marker, len(g.Keys))
		for _, k := range g.Keys {
			method, raw := offline.ParseCacheKey(k)
			fmt.Fprintf(w, "  %s %s\n", method, raw)
		}
	}
	return nil
}

func writeSweep(w io.Writer, format string, result SweepResult) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(result)
	}
	_, err := fmt.Fprintf(w, "kept %s, removed %d generation(s)\n", result.Kept, len(result.Removed))
	return err
}
