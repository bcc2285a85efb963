// Package boot wires the services from their configuration: logger, metrics, SDK, database and message broker.
package boot

import (
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/config"
	"github.com/architectjyothi/overledger-sdk-go/lib/metrics"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg"
	"github.com/architectjyothi/overledger-sdk-go/lib/msg/mb"
	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/store/db"
)

// MetricsAddr is where the prometheus metrics are served when monitoring is on.
const MetricsAddr = ":9100"

// BrokerRetry is the wait before the single reconnection attempt to the message broker.
const BrokerRetry = 10 * time.Second

// Logger sets the global log level and, when console is true, human friendly output on stderr.
func Logger(level zerolog.Level, console bool) {
	zerolog.SetGlobalLevel(level)

	if console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// Monitor registers the collectors and serves them on addr.
func Monitor(addr string) (*metrics.Metrics, error) {
	m, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics API")

		h := http.NewServeMux()
		h.Handle("/metrics", promhttp.Handler())

		if err := http.ListenAndServe(addr, h); err != nil { //nolint:gosec // metrics only
			log.Error().Err(err).Msg("metrics API stopped")
		}
	}()

	return m, nil
}

// SDK returns the SDK configured by conf.
func SDK(conf config.ServiceConfig, m *metrics.Metrics) (*overledger.SDK, error) {
	return overledger.New(conf.MappID, conf.BpiKey, overledger.Options{
		Dlts:    conf.Dlts,
		Network: conf.Network,
		Timeout: conf.Timeout,
		BaseURL: conf.BaseURL,
		Metrics: m,
	})
}

// DB connects to the journal database, nil when no connection is configured.
func DB(conf config.ServiceConfig) (store.DB, error) {
	if conf.DBConn == "" && conf.DBType != db.MEMORY {
		log.Warn().Msg("no database configured, submissions will not be recorded")

		return nil, nil
	}

	d, err := db.New(conf.DBType, conf.DBConn)
	if err != nil {
		return nil, err
	}

	log.Info().Str("type", conf.DBType).Msg("connected to database")

	return d, nil
}

// Broker connects to the message broker, nil when no broker type is configured. A failed connection is retried once
// after retry, giving the broker time to come up.
func Broker(conf config.ServiceConfig, retry time.Duration) (msg.Broker, error) {
	if conf.MbType == "" {
		log.Warn().Msg("no message broker configured, events will not be published")

		return nil, nil
	}

	b, err := mb.New(conf.MbType, conf.MbConn)
	if err == nil || errors.Is(err, mb.ErrUnknownType) {
		return b, err
	}

	log.Warn().Err(err).Dur("retry", retry).Msg("message broker not ready")
	time.Sleep(retry)

	return mb.New(conf.MbType, conf.MbConn)
}
