package cli

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"netcore/internal/handler"
	"netcore/internal/service"
	"netcore/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var (
		watch     bool
		noMonitor bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the liveness monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.monitor()
			if err != nil {
				return err
			}
			im := a.importer()
			scanDir := a.cfg.Scan.Dir

			h := handler.New(service.NewInventoryService(a.store), a.log)
			h.SetDiscoveryRunner(im, scanDir)

			server := &http.Server{
				Addr:         a.cfg.Server.Listen,
				Handler:      h.Routes(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			var w *watcher.Watcher
			if watch {
				w, err = watcher.New([]string{
					filepath.Join(scanDir, service.DefaultDiscoveryFile),
					filepath.Join(scanDir, service.DefaultPortScanFile),
				}, func(ctx context.Context) {
					if _, err := im.ImportDir(ctx, scanDir); err != nil {
						a.log.Error().Err(err).Str("dir", scanDir).Msg("re-import failed")
					}
				}, a.log)
				if err != nil {
					return err
				}
				w.WithDebounce(a.cfg.Scan.Debounce.Duration())
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				a.log.Info().Str("addr", server.Addr).Msg("server listening")
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				a.log.Info().Msg("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if !noMonitor {
				g.Go(func() error {
					return m.Run(ctx)
				})
			}

			if w != nil {
				g.Go(func() error {
					return w.Watch(ctx)
				})
			}

			err = g.Wait()
			a.log.Info().Msg("server stopped")
			return err
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-import when scan documents in the scan directory change")
	cmd.Flags().BoolVar(&noMonitor, "no-monitor", false, "do not run the liveness monitor")
	return cmd
}
