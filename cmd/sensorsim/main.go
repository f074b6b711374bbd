// Command sensorsim emits synthetic air-quality readings to a running server,
// either over HTTP (POST /save) or as MQTT messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/config"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/logging"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/sensorsim"
)

const appName = "sensorsim"

var version = "dev"

func main() {
	// The server environment supplies log settings and MQTT defaults.
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	broker := cfg.MQTTBroker
	if broker == "" {
		broker = "localhost"
	}

	var opts sensorsim.Options
	flagSet := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	flagSet.StringVar(&opts.Target, "target", sensorsim.TargetHTTP, "where to send readings: http or mqtt")
	flagSet.StringVar(&opts.URL, "url", defaultURL(cfg.HTTPAddr), "ingest endpoint for --target http")
	flagSet.StringVar(&opts.Broker, "broker", broker, "MQTT broker host for --target mqtt")
	flagSet.IntVar(&opts.Port, "port", cfg.MQTTPort, "MQTT broker port")
	flagSet.StringVar(&opts.Topic, "topic", "sensors/sim/readings", "MQTT topic to publish to")
	flagSet.StringVar(&opts.Location, "location", "Simulated Station", "location reported in each reading")
	flagSet.DurationVar(&opts.Interval, "interval", 10*time.Second, "time between readings")
	flagSet.IntVarP(&opts.Count, "count", "n", 0, "number of readings to send (0 = until interrupted)")
	flagSet.Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "flag error: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg, version, appName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sensorsim.Run(ctx, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func defaultURL(httpAddr string) string {
	host := httpAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/save"
}
