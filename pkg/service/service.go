// QR Studio Core
// Copyright (c) 2026 The QR Studio Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of QR Studio Core.
//
// QR Studio Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// QR Studio Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with QR Studio Core.  If not, see <http://www.gnu.org/licenses/>.

// Package service assembles the long-running QR Studio process: history
// store, tracker, API server, publishers, discovery and hardware readers.
package service

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/qrstudio/qrstudio-core/pkg/api"
	"github.com/qrstudio/qrstudio-core/pkg/api/models"
	"github.com/qrstudio/qrstudio-core/pkg/api/notifications"
	"github.com/qrstudio/qrstudio-core/pkg/config"
	"github.com/qrstudio/qrstudio-core/pkg/database"
	"github.com/qrstudio/qrstudio-core/pkg/database/userdb"
	"github.com/qrstudio/qrstudio-core/pkg/decode"
	"github.com/qrstudio/qrstudio-core/pkg/helpers"
	"github.com/qrstudio/qrstudio-core/pkg/render"
	"github.com/qrstudio/qrstudio-core/pkg/service/broker"
	"github.com/qrstudio/qrstudio-core/pkg/service/codes"
	"github.com/qrstudio/qrstudio-core/pkg/service/discovery"
	"github.com/qrstudio/qrstudio-core/pkg/service/publishers"
	"github.com/qrstudio/qrstudio-core/pkg/service/state"
	"github.com/qrstudio/qrstudio-core/pkg/tracker"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 100

// cleanupHistoryOnStartup drops scan events past the configured retention.
func cleanupHistoryOnStartup(cfg *config.Instance, db database.UserDBI) {
	days := cfg.HistoryRetentionDays()
	if days <= 0 {
		log.Debug().Msg("scan history cleanup disabled (retention set to 0)")
		return
	}

	log.Info().Msgf("cleaning up scan events older than %d days", days)
	rowsDeleted, err := db.CleanupScanEvents(days)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("error cleaning up scan events")
	case rowsDeleted > 0:
		log.Info().Msgf("deleted %d old scan events", rowsDeleted)
	default:
		log.Debug().Msg("no old scan events to clean up")
	}
}

// forwardScanEvents turns stored scan events into codes.scanned
// notifications until events closes or ctx ends.
func forwardScanEvents(ctx context.Context, events <-chan database.ScanEvent, ns chan<- models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			notifications.CodesScanned(ns, models.CodeScannedParams{Time: ev.Time, ID: ev.CodeID})
		}
	}
}

// Start runs the service against the default data directory.
func Start(cfg *config.Instance) (stop func() error, done <-chan struct{}, err error) {
	return start(cfg, helpers.DataDir(), clockwork.NewRealClock())
}

func start(
	cfg *config.Instance,
	dataDir string,
	clock clockwork.Clock,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	st, ns := state.NewState()
	ctx := st.GetContext()

	notifBroker := broker.NewBroker(ctx, "notifications", ns)
	notifBroker.Start()

	log.Info().Msg("opening history database")
	db, err := userdb.OpenUserDB(ctx, dataDir)
	if err != nil {
		log.Error().Err(err).Msg("error opening history database")
		st.StopService()
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}

	cleanupHistoryOnStartup(cfg, db)

	aggregator := tracker.NewAggregator(db, clock)
	codesSvc := codes.NewService(db, cfg, render.NewQRRenderer(cfg.RenderRecovery()), st.Notifications, clock)

	scanEvents, scanSubID := aggregator.Subscribe(subscriberBuffer)
	go forwardScanEvents(ctx, scanEvents, st.Notifications)

	log.Info().Msg("starting API service")
	apiNotifications, _ := notifBroker.Subscribe(subscriberBuffer)
	srv := api.NewServer(cfg, st, api.Services{
		Codes:   codesSvc,
		Tracker: aggregator,
		Decoder: decode.NewZXing(),
	}, clock)
	apiDone, err := srv.Start(apiNotifications)
	if err != nil {
		log.Error().Err(err).Msg("error starting API server")
		st.StopService()
		aggregator.Unsubscribe(scanSubID)
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing history database")
		}
		return nil, nil, fmt.Errorf("failed to start API server: %w", err)
	}

	log.Info().Msg("starting mDNS discovery service")
	discoveryService := discovery.New(cfg)
	if discoveryErr := discoveryService.Start(); discoveryErr != nil {
		log.Error().Err(discoveryErr).Msg("mDNS discovery failed to start (continuing without discovery)")
	}

	log.Info().Msg("starting publishers")
	publisherNotifications, _ := notifBroker.Subscribe(subscriberBuffer)
	activePublishers := publishers.StartMQTT(cfg)
	fanOutCtx, cancelFanOut := context.WithCancel(ctx)
	go publishers.FanOut(fanOutCtx, publisherNotifications, activePublishers)

	log.Info().Msg("starting reader manager")
	readersDone := make(chan struct{})
	go func() {
		defer close(readersDone)
		readerManager(cfg, st, codesSvc, defaultReaderFactories, clock)
	}()

	doneCh := make(chan struct{})
	go func() {
		<-ctx.Done()
		log.Info().Msg("service context cancelled, running cleanup")

		discoveryService.Stop()
		cancelFanOut()
		for _, publisher := range activePublishers {
			publisher.Stop()
		}
		<-apiDone
		<-readersDone

		aggregator.Wait()
		aggregator.Unsubscribe(scanSubID)
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing history database")
		}
		notifBroker.Stop()

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		st.StopService()
		<-doneCh
		return nil
	}
	return stop, doneCh, nil
}
