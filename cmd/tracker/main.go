// Package main: tracker service.
//
// The tracker follows the submissions recorded by the wallet service and publishes their status changes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/architectjyothi/overledger-sdk-go/lib/boot"
	"github.com/architectjyothi/overledger-sdk-go/lib/config"
	"github.com/architectjyothi/overledger-sdk-go/lib/metrics"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/db"
	"github.com/architectjyothi/overledger-sdk-go/tracker"
)

func main() {
	var (
		confPath string
		monitor  bool
		console  bool
	)

	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Submission status tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(confPath, monitor, console)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&confPath, "conf", "c", "", "configuration json file")
	cmd.Flags().BoolVarP(&monitor, "monitor", "m", false, "serve prometheus metrics on "+boot.MetricsAddr)
	cmd.Flags().BoolVar(&console, "console", false, "human friendly log output")

	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("tracker failed")
		os.Exit(1)
	}
}

func run(confPath string, monitor, console bool) error {
	conf, err := config.ExtractConfiguration(confPath)
	if err != nil {
		return err
	}

	boot.Logger(conf.Level(), console)

	var m *metrics.Metrics
	if monitor {
		if m, err = boot.Monitor(boot.MetricsAddr); err != nil {
			return err
		}
	}

	sdk, err := boot.SDK(conf, m)
	if err != nil {
		return err
	}

	dbConn, err := boot.DB(conf)
	if err != nil {
		return err
	}

	if dbConn == nil {
		return errors.New("the tracker needs a database")
	}

	defer func() {
		log.Info().Err(db.Close(dbConn)).Msg("disconnected database")
	}()

	mb, err := boot.Broker(conf, boot.BrokerRetry)
	if err != nil {
		return err
	}

	if mb != nil {
		defer func() {
			log.Info().Err(mb.Close()).Msg("closed message broker")
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := tracker.New(sdk, dbConn, mb, m, conf.Poll())

	log.Info().Msg("tracker: " + <-t.Track(ctx))

	return nil
}
