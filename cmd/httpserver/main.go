package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/fincrypt/cmd/flags"
	"github.com/ruteri/fincrypt/common"
	"github.com/ruteri/fincrypt/httpserver"
	"github.com/ruteri/fincrypt/metrics"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "fincrypt-server",
		Usage:   "Serve the FinCrypt encrypt/decrypt API",
		Version: common.Version,
		Flags:   append(append(append([]cli.Flag{}, flags.KeyFlags...), flags.ServerFlags...), flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			cfg, err := flags.LoadConfig(cCtx)
			if err != nil {
				return err
			}
			logger := flags.SetupLogger(cCtx, cfg)

			metricsSrv, err := metrics.New(common.PackageName, cfg.Server.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}

			svc, err := flags.NewService(cfg, metricsSrv.Metrics, logger)
			if err != nil {
				logger.Error("Failed to create service", "err", err)
				return err
			}

			// Fail early if the server cannot sign or decrypt.
			if _, err := svc.PrivateKey(cCtx.Context); err != nil {
				logger.Error("Private key not available", "err", err)
				return err
			}

			serverCfg := flags.ConfigureServer(cCtx, cfg, logger)
			handler := httpserver.NewHandler(svc, serverCfg.MaxBodyBytes, logger)
			server, err := httpserver.New(serverCfg, handler, metricsSrv)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
