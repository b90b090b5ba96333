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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/carverauto/syrbridge/pkg/api"
	"github.com/carverauto/syrbridge/pkg/bridge"
	"github.com/carverauto/syrbridge/pkg/config"
	"github.com/carverauto/syrbridge/pkg/events"
	"github.com/carverauto/syrbridge/pkg/lifecycle"
	"github.com/carverauto/syrbridge/pkg/syrconn"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/syrbridge/syrbridge.json", "Path to syrbridge config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig()

	var cfg bridge.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	bridgeLogger, err := lifecycle.CreateComponentLogger("bridge", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := syrconn.NewClient(syrconn.ClientConfig{
		Username:   cfg.Username,
		Password:   cfg.Password,
		BaseURL:    cfg.BaseURL,
		Timeout:    time.Duration(cfg.RequestTimeout),
		MaxRetries: cfg.MaxRetries,
	}, nil, bridgeLogger)
	if err != nil {
		return fmt.Errorf("failed to create vendor client: %w", err)
	}

	session := syrconn.NewSessionManager(client, 0, bridgeLogger)

	var sink bridge.EventSink = bridge.NopEventSink{}

	if cfg.NATS != nil {
		eventsLogger, lerr := lifecycle.CreateComponentLogger("events", cfg.Logging)
		if lerr != nil {
			return lerr
		}

		publisher, perr := events.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream, eventsLogger)
		if perr != nil {
			return fmt.Errorf("failed to set up event publishing: %w", perr)
		}

		sink = publisher
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := bridge.NewMetrics(registry)

	svc := bridge.New(&cfg, client, session, sink, metrics, nil, bridgeLogger)

	apiLogger, err := lifecycle.CreateComponentLogger("api", cfg.Logging)
	if err != nil {
		return err
	}

	server := api.NewServer(svc, cfg.ListenAddr, registry, apiLogger)

	return lifecycle.Run(ctx, lifecycle.Group{svc, server}, bridgeLogger)
}
