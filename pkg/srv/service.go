package srv

import (
	"context"
	"errors"
	"time"

	"github.com/sandevgo/storedash/pkg/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Service is a long-running component. Start blocks until the service is
// finished or ctx is cancelled.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Run starts every service and blocks until ctx is cancelled or any service
// returns from Start. All services are then shut down in reverse order.
func Run(ctx context.Context, services []Service) error {
	logger := log.FromCtx(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for _, service := range services {
		g.Go(func() error {
			defer cancel()
			if err := service.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msgf("%T stopped with error", service)
				return err
			}
			logger.Debug().Msgf("%T stopped", service)
			return nil
		})
	}

	<-runCtx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancelShutdown()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
			errs = append(errs, err)
		}
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
