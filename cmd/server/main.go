// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ItsRqtl/TeachCraft/internal/captcha"
	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/crypto"
	httphandler "github.com/ItsRqtl/TeachCraft/internal/handler/http"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
	"github.com/ItsRqtl/TeachCraft/internal/mail"
	"github.com/ItsRqtl/TeachCraft/internal/server"
	"github.com/ItsRqtl/TeachCraft/internal/service"
	"github.com/ItsRqtl/TeachCraft/internal/store"
	"github.com/ItsRqtl/TeachCraft/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const initializeTimeout = 30 * time.Second

func main() {
	printBuildInfo()

	log := logger.NewLogger("teachcraft-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	keyring, err := crypto.NewKeyring(cfg.App.MasterSecret, cfg.App.KeyringContext)
	if err != nil {
		log.Fatal().Err(err).Msg("error deriving keyring")
	}

	hasher := crypto.NewPasswordHasher(cfg.App.HashConcurrency)

	client, err := store.NewClient(cfg.Storage.DB, keyring, log,
		store.NewUsersDAO(hasher, log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating database client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), initializeTimeout)
	if err := client.Initialize(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("error initializing database client")
	}
	cancel()

	mailer, err := mail.NewSMTPMailer(cfg.Mail, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating mailer")
	}

	verifier := captcha.NewTurnstileVerifier(cfg.Captcha.TurnstileSecret, log)

	services := service.NewServices(client, mailer, verifier, *cfg, log)
	handler := httphandler.NewHandler(services, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	workers.NewWorkers(
		workers.NewTokenCleanup(client.Users(), cfg.Workers.TokenCleanupInterval, log),
	).Run(workersCtx)

	srv.RunServer()
	stopWorkers()

	if err := client.Close(); err != nil {
		log.Err(err).Msg("error closing database client")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
