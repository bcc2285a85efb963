// Package main: wallet service.
//
// The wallet serves the RESTful API of the SDK. Submissions are recorded in the database shared with the tracker
// service, which follows them until they reach a final status.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/architectjyothi/overledger-sdk-go/lib/boot"
	"github.com/architectjyothi/overledger-sdk-go/lib/config"
	"github.com/architectjyothi/overledger-sdk-go/lib/metrics"
	"github.com/architectjyothi/overledger-sdk-go/wallet"
)

func main() {
	var (
		confPath string
		monitor  bool
		console  bool
	)

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Multi-ledger wallet RESTful service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(confPath, monitor, console)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&confPath, "conf", "c", "", "configuration json file")
	cmd.Flags().BoolVarP(&monitor, "monitor", "m", false, "serve prometheus metrics on "+boot.MetricsAddr)
	cmd.Flags().BoolVar(&console, "console", false, "human friendly log output")

	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("wallet failed")
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

	mb, err := boot.Broker(conf, boot.BrokerRetry)
	if err != nil {
		return err
	}

	w := wallet.New(sdk, dbConn, mb)

	// capture CTRL+C or docker's SIGTERM for gracious exit
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Info().Msg("program killed")
		w.StopWallet()
	}()

	if err = w.ManageEvents(); err != nil {
		log.Error().Err(err).Msg("cannot set up broker readers for events")
	}

	log.Info().Msg(w.Init(conf.RestfulEndpoint, conf.Port, conf.SSLPort, conf.SSLCert, conf.SSLKey))

	return nil
}
