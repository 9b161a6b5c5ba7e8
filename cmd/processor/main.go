// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/alert"
	"github.com/tomtom215/sentinel/internal/baseline"
	"github.com/tomtom215/sentinel/internal/classify"
	"github.com/tomtom215/sentinel/internal/config"
	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/ops"
	"github.com/tomtom215/sentinel/internal/pipeline"
	"github.com/tomtom215/sentinel/internal/store"
	"github.com/tomtom215/sentinel/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	processorID := processorID()
	logging.Info().Str("processor_id", processorID).Msg("starting Sentinel processor")

	// Tiered store. One Badger DB backs both the object store and the
	// alert records; this is the single owner of its Close.
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("close store")
		}
	}()

	breakerCfg := store.DefaultBreakerConfig()
	breakerCfg.FailureThreshold = cfg.Store.BreakerFailureThreshold
	breakerCfg.Timeout = cfg.Store.BreakerTimeout
	objectStore := store.NewBreakerStore(store.NewBadgerStore(db), breakerCfg)

	// Transport. Unreachable broker is fatal: the pipeline never serves
	// degraded.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), time.Minute)
	transport, err := initTransport(startupCtx, cfg)
	startupCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize transport")
	}
	defer transport.close()

	// Processing components.
	baselines := baseline.NewStore(baseline.Config{
		Retention:  cfg.Detect.Retention,
		MinSamples: cfg.Detect.MinSamples,
	})
	detector := baseline.NewDetector(baselines, baseline.Thresholds{
		Medium:   cfg.Detect.MediumThreshold,
		High:     cfg.Detect.HighThreshold,
		Critical: cfg.Detect.CriticalThreshold,
	})
	windows := aggregate.NewWindowSet(nil)
	classifier := classify.NewClassifier()

	dispatcher, err := buildDispatcher(cfg, db, transport)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build alert dispatcher")
	}

	processor, err := pipeline.NewProcessor(classifier, baselines, detector, windows, objectStore, dispatcher, processorID)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build processor")
	}

	router, err := pipeline.NewRouter(cfg.Transport, transport.publisher.Watermill(), logging.NewWatermillAdapter())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build router")
	}
	router.AddConsumerHandler("telemetry-processor", cfg.Transport.SubjectPrefix+".>", transport.subscriber.Watermill(), processor.Handle)

	aggTask := pipeline.NewAggregationTask(windows, objectStore, cfg.Aggregate.Interval, processorID)
	healthTask := pipeline.NewHealthTask(processor, windows, 60*time.Second)
	opsServer := ops.NewServer(cfg.Ops, healthTask, transport.ready)

	// Supervision tree.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(supervisor.RunFunc{Name: "pipeline-router", Run: router.Run})
	tree.AddProcessingService(supervisor.RunFunc{Name: "aggregation-task", Run: aggTask.Run})
	tree.AddProcessingService(supervisor.RunFunc{Name: "health-task", Run: healthTask.Run})
	tree.AddOpsService(supervisor.NewHTTPService(opsServer.HTTP(), 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervision tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervision tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervision shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
		}
	}

	logging.Info().Msg("processor stopped")
}

// buildDispatcher wires alert routing: a webhook notifier per configured
// channel, the message-bus mirror for channels without one, and the durable
// record store on the shared DB. Encrypted webhook tokens are decrypted here
// once, at startup.
func buildDispatcher(cfg *config.Config, db *badger.DB, t *transport) (*alert.Dispatcher, error) {
	var encryptor *config.CredentialEncryptor
	if cfg.Alert.SecretKey != "" {
		var err error
		encryptor, err = config.NewCredentialEncryptor(cfg.Alert.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("create credential encryptor: %w", err)
		}
	}

	notifiers := make(map[alert.Channel]alert.Notifier)
	channels := map[alert.Channel]config.WebhookChannelConfig{
		alert.ChannelUrgent:   cfg.Alert.Urgent,
		alert.ChannelStandard: cfg.Alert.Standard,
		alert.ChannelTicket:   cfg.Alert.Ticket,
	}
	for ch, wh := range channels {
		switch {
		case wh.URL != "":
			token := wh.AuthToken
			if encryptor != nil {
				decrypted, err := encryptor.Decrypt(token)
				if err != nil {
					return nil, fmt.Errorf("decrypt %s channel token: %w", ch, err)
				}
				token = decrypted
			}
			notifiers[ch] = alert.NewWebhookNotifier(alert.WebhookConfig{
				Name:          string(ch),
				URL:           wh.URL,
				AuthToken:     token,
				Timeout:       wh.Timeout,
				RatePerSecond: wh.RatePerSecond,
				Burst:         wh.Burst,
			})
		case cfg.Alert.BusTopicPrefix != "":
			notifiers[ch] = alert.NewBusNotifier(string(ch), cfg.Alert.BusTopicPrefix, t.publisher.Watermill())
		}
	}

	records := alert.NewBadgerRecordStore(db)
	dedup := alert.NewDedupCache(cfg.Alert.DedupCapacity, cfg.Alert.DedupTTL)
	return alert.NewDispatcher(records, dedup, notifiers), nil
}

// processorID identifies this instance in records and metadata tags.
func processorID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "sentinel-" + uuid.NewString()[:8]
	}
	return host
}
