package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	githubctrl "github.com/m-mizutani/drover/pkg/controller/github"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/drover/pkg/infra/github"
	"github.com/m-mizutani/drover/pkg/infra/notify"
	"github.com/m-mizutani/drover/pkg/infra/store"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		githubCfg   config.GitHub
		registryCfg config.Registry
		dataCfg     config.Data
		notifyCfg   config.Notify
		sentryCfg   config.Sentry
		pipelineCfg config.Pipeline
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, dataCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server that publishes on release events",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting drover server",
				slog.String("addr", serverCfg.Addr),
			)
			logger.Debug("Configuration loaded",
				slog.Any("server", serverCfg),
				slog.Any("github", githubCfg),
				slog.Any("registry", registryCfg),
				slog.Any("data", dataCfg),
				slog.Any("notify", notifyCfg),
				slog.Any("pipeline", pipelineCfg),
			)

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			pem, err := githubCfg.PrivateKeyPEM()
			if err != nil {
				return err
			}
			ghClient, err := githubinfra.NewClient(githubCfg.AppID, githubCfg.InstallationID, pem)
			if err != nil {
				return goerr.Wrap(err, "failed to create GitHub client")
			}

			publishOpts := []usecase.PublishOption{
				usecase.WithGitHubClient(ghClient),
			}

			var runStore interfaces.RunStore
			var logDir string
			if dataCfg.Enabled() {
				st, err := store.Open(dataCfg.DBPath())
				if err != nil {
					return goerr.Wrap(err, "failed to open run store")
				}
				defer st.Close()

				runStore = st
				logDir = dataCfg.LogDir()
				publishOpts = append(publishOpts, usecase.WithRunStore(st))
			}

			if notifyCfg.SlackWebhookURL != "" {
				publishOpts = append(publishOpts, usecase.WithNotifier(notify.NewSlack(notifyCfg.SlackWebhookURL)))
			}

			publishUC := usecase.NewPublish(usecase.PublishConfig{
				DefinitionFile: pipelineCfg.File,
				WorkRoot:       pipelineCfg.WorkDir,
				LogDir:         logDir,
				Credentials:    registryCfg.Credentials(),
			}, publishOpts...)

			webhookUC := usecase.NewWebhook()
			eventProcessor := githubctrl.NewEventProcessor(publishUC)

			server, err := controller.NewServer(
				ctx,
				webhookUC,
				eventProcessor,
				runStore,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
