/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * ippserver - virtual IPP printer
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenPrinting/ipp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath string
		listen     string
		debug      bool
	)

	flagSet := pflag.NewFlagSet("ippserver", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "",
		"path to the configuration file")
	flagSet.StringVarP(&listen, "listen", "l", "",
		"listen address, overrides the configuration")
	flagSet.BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			fmt.Println("usage: ippserver [options]")
			flagSet.PrintDefaults()
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	if listen != "" {
		cfg.Listen = listen
	}
	if debug {
		cfg.LogLevel = zerolog.DebugLevel
	}

	initLogger(cfg.LogLevel)

	printer := NewPrinter(cfg)
	printer.RegisterMetrics(prometheus.DefaultRegisterer)

	engine := ipp.NewEngine()
	engine.SetDecoderOptions(ipp.DecoderOptions{
		MaxCollectionDepth: cfg.MaxCollectionDepth,
	})
	printer.Register(engine)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", exchangeHandler(engine))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("listen", cfg.Listen).
			Str("printer", cfg.PrinterName).
			Msg("ippserver started")

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listener failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// initLogger configures the global zerolog logger.
func initLogger(level zerolog.Level) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	log.Logger = zerolog.New(output).Level(level).
		With().Timestamp().Logger()
}

// exchangeHandler bridges HTTP to the engine: every POST body is one
// request message plus optional document data, the HTTP response body
// is the encoded response.
func exchangeHandler(e *ipp.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		if r.Header.Get("Content-Type") != ipp.ContentType {
			http.Error(w, "expected "+ipp.ContentType,
				http.StatusUnsupportedMediaType)
			return
		}

		w.Header().Set("Content-Type", ipp.ContentType)

		res, err := e.Exchange(r.Context(), r.Body, w)
		if err != nil {
			// Nothing was written yet when the exchange dies
			// in the request header
			log.Warn().Err(err).
				Str("remote", r.RemoteAddr).
				Msg("exchange failed")

			if res.State == ipp.StateAwaitingRequest {
				http.Error(w, "malformed request",
					http.StatusBadRequest)
			}
			return
		}

		log.Debug().
			Stringer("op", res.Op).
			Stringer("status", res.Status).
			Uint32("request-id", res.RequestID).
			Str("remote", r.RemoteAddr).
			Msg("exchange complete")
	})
}
