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
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/wso2/api-platform/gateway/community-board/pkg/offline"
)

type proxyOptions struct {
	upstream string
	listen   string
	routes   routeOptions
}

// NewProxyCommand creates the proxy command.
func NewProxyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &proxyOptions{}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Serve the board through the offline cache",
		Long: `Starts a local reverse proxy in front of the board server.

On start the shell manifest is installed into the current generation and
older generations are swept. Realtime transports are passed straight
through.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.upstream, "upstream", "", "board server URL (required)")
	cmd.Flags().StringVar(&opts.listen, "listen", "127.0.0.1:8080", "local listen address")
	opts.routes.addFlags(cmd)
	_ = cmd.MarkFlagRequired("upstream")

	return cmd
}

func runProxy(ctx context.Context, rootOpts *RootOptions, opts *proxyOptions, cmd *cobra.Command) error {
	logger := rootOpts.logger(cmd.ErrOrStderr())

	upstream, err := url.Parse(opts.upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return fmt.Errorf("invalid upstream %q", opts.upstream)
	}

	routes, err := opts.routes.table()
	if err != nil {
		return err
	}
	for _, r := range routes.Rules() {
		logger.Debug("strategy rule", "prefix", r.Prefix, "strategy", r.Strategy)
	}

	storage, err := offline.OpenBadger(rootOpts.CacheDir)
	if err != nil {
		return err
	}
	defer storage.Close()

	ctrl := offline.NewController(storage, offline.Options{
		BuildID: rootOpts.BuildID,
		Origin:  upstream,
		Routes:  routes,
	}, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed install leaves the controller inactive and every request
	// goes to the network, as a browser does with a failed worker install.
	if err := ctrl.Start(ctx); err != nil {
		logger.Warn("cache controller not started", "error", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.Transport = ctrl
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("upstream unavailable", "path", r.URL.Path, "error", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}

	srv := &http.Server{Addr: opts.listen, Handler: proxy}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("proxy listening", "addr", opts.listen, "upstream", upstream.String(), "build", ctrl.BuildID())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("proxy: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("proxy shutdown error", "error", err)
	}
	ctrl.Wait()
	logger.Info("proxy stopped")
	return nil
}
