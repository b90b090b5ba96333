/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package lifecycle manages service startup and shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/syrbridge/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is anything with a blocking Start and a bounded Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Run starts the service and blocks until it exits on its own, the context
// is canceled, or a SIGINT/SIGTERM arrives. Stop always runs with a bounded
// timeout before Run returns.
func Run(ctx context.Context, svc Service, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(ctx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("service exited: %w", err)
		} else {
			// Start returned without error; the service runs in the
			// background until a shutdown signal.
			<-ctx.Done()
			log.Info().Msg("Shutdown signal received")
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := svc.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping service")

		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}

// Group composes services into one: Start runs in order, Stop in
// reverse. A failed Start stops the services already started.
type Group []Service

func (g Group) Start(ctx context.Context) error {
	for i, svc := range g {
		if err := svc.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g[j].Stop(ctx)
			}

			return err
		}
	}

	return nil
}

func (g Group) Stop(ctx context.Context) error {
	var firstErr error

	for i := len(g) - 1; i >= 0; i-- {
		if err := g[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// CreateComponentLogger creates a logger tagged with the component name.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	base, err := logger.New(config)
	if err != nil {
		return nil, err
	}

	return base.Component(component), nil
}
