package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/config"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/httpapi"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"storeBackend", cfg.StoreBackend,
		"sqlitePath", cfg.SQLitePath,
		"tableName", cfg.TableName,
		"publishBackend", cfg.PublishBackend,
		"publishDir", cfg.PublishDir,
		"publishKey", cfg.PublishKey,
		"bucketName", cfg.BucketName,
		"awsRegion", cfg.AWSRegion,
		"storeTimeout", cfg.StoreTimeout,
		"publishTimeout", cfg.PublishTimeout,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	components, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			slog.Error("close components", "error", closeErr)
		}
	}()

	if err := components.Service.Ping(ctx); err != nil {
		return err
	}
	slog.Info("store connection successful", "backend", cfg.StoreBackend)

	var mqttSubscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		// Set the handler before Connect; the broker may deliver queued
		// messages right after CONNACK.
		mqttSubscriber = mqtt.NewSubscriber(cfg, logger)
		components.Service.RegisterMQTT(mqttSubscriber)

		// Short timeout so a broker outage does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, components.Handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		slog.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
