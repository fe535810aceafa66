package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/remote"
	"github.com/sandevgo/storedash/internal/service/ui"
	"github.com/sandevgo/storedash/pkg/log"
	"github.com/sandevgo/storedash/pkg/retry"
	"github.com/spf13/cobra"
)

var healthFlags struct {
	wait    bool
	retries int
	json    bool
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the model service",
	Long:  `Asks the model service whether it is up and its model is loaded. With --wait the probe is retried with exponential backoff until it succeeds.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context(), logStderr)
		if err != nil {
			return err
		}
		defer flushLog()

		logger := log.FromCtx(ctx)
		client := remote.NewClient(remote.Config{
			BaseURL:      cfg.GetAPIURL(),
			CallTimeout:  cfg.GetCallTimeout(),
			ProbeTimeout: cfg.GetProbeTimeout(),
		}, nil)

		probe := func(ctx context.Context) (core.Health, error) {
			return client.Probe(ctx)
		}
		if healthFlags.wait {
			probe = func(ctx context.Context) (core.Health, error) {
				conf := retry.NewDefaultConfig()
				conf.MaxRetries = healthFlags.retries

				r := retry.NewRetrier(conf)
				r.OnRetry = func(attempt int, delay time.Duration, err error) {
					logger.Info().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("model service not ready, retrying")
				}

				var h core.Health
				err := r.Do(ctx, func(ctx context.Context) error {
					var err error
					h, err = client.Probe(ctx)
					if err == nil && !h.ModelLoaded {
						err = fmt.Errorf("model not loaded (status %q)", h.Status)
					}
					return err
				})
				return h, err
			}
		}

		h, err := probe(ctx)
		if err != nil {
			h = core.UnhealthyStatus()
		}

		out := cmd.OutOrStdout()
		if healthFlags.json {
			if perr := printJSON(out, h); perr != nil {
				return perr
			}
		} else {
			verdict := ui.OKStyle.Render(h.Status)
			if err != nil || !h.ModelLoaded {
				verdict = ui.FailStyle.Render(h.Status)
			}
			fmt.Fprintf(out, "%s  %s  model loaded: %t\n", cfg.GetAPIURL(), verdict, h.ModelLoaded)
		}

		if err != nil {
			return fmt.Errorf("model service unavailable: %w", err)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVarP(&healthFlags.wait, "wait", "w", false, "retry until the service is up and the model loaded")
	healthCmd.Flags().IntVar(&healthFlags.retries, "retries", 5, "retries with --wait")
	healthCmd.Flags().BoolVar(&healthFlags.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(healthCmd)
}
