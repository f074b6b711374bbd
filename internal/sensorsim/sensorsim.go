// Package sensorsim simulates a station posting readings, for local testing
// of the ingest paths.
package sensorsim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const (
	TargetHTTP = "http"
	TargetMQTT = "mqtt"
)

type Options struct {
	Target   string
	URL      string
	Broker   string
	Port     int
	Topic    string
	Location string
	Interval time.Duration
	// Count of readings to send; 0 sends until ctx is done.
	Count int
	Seed  int64
}

func (o Options) validate() error {
	switch o.Target {
	case TargetHTTP:
		if o.URL == "" {
			return fmt.Errorf("url is required for target %q", o.Target)
		}
	case TargetMQTT:
		if o.Broker == "" || o.Topic == "" {
			return fmt.Errorf("broker and topic are required for target %q", o.Target)
		}
		if o.Port <= 0 || o.Port > 65535 {
			return fmt.Errorf("port %d is out of range [1, 65535]", o.Port)
		}
	default:
		return fmt.Errorf("invalid target %q (allowed: http, mqtt)", o.Target)
	}
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if o.Count < 0 {
		return fmt.Errorf("count must be >= 0")
	}
	return nil
}

// Run connects to the target and sends a reading every Interval, starting
// immediately. Send failures are logged and the loop continues.
func Run(ctx context.Context, opts Options, logger *slog.Logger) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var sender Sender
	switch opts.Target {
	case TargetMQTT:
		ms := newMQTTSender(opts, logger)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := ms.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		sender = ms
	default:
		sender = newHTTPSender(opts.URL)
	}
	defer sender.Close()

	return loop(ctx, opts, NewGenerator(opts.Seed, opts.Location), sender, logger)
}

func loop(ctx context.Context, opts Options, gen *Generator, sender Sender, logger *slog.Logger) error {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	sent := 0
	for {
		reading := gen.Next()
		body, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}
		if err := sender.Send(ctx, body); err != nil {
			logger.Warn("send reading failed", "datetime", reading.Datetime, "error", err)
		} else {
			logger.Info("sent reading",
				"target", opts.Target,
				"datetime", reading.Datetime,
				"pm2_5", reading.PM25,
			)
		}

		sent++
		if opts.Count > 0 && sent >= opts.Count {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
