package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/config"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/db"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/httpapi"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/migrate"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/publisher"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/repository"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/service"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/views"
)

// Components holds everything built from a Config. Both the HTTP server and
// the Lambda front serve Handler.
type Components struct {
	Service *service.Service
	Handler http.Handler

	closers []func() error
}

// Close releases the store connection, if any.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires the readings feature for cfg. AWS clients are only created for
// the backends that need them.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{}

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return aws.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
		return loaded, nil
	}

	repo, err := buildRepository(ctx, cfg, logger, loadAWS, c)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	pub, err := buildPublisher(cfg, loadAWS)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	renderer, err := views.NewRenderer()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	c.Service = service.NewService(repo, renderer, pub, service.Options{
		StoreTimeout:   cfg.StoreTimeout,
		PublishTimeout: cfg.PublishTimeout,
	}, logger)

	siteDir := ""
	if cfg.PublishBackend == config.PublishFS {
		siteDir = cfg.PublishDir
	}
	mux := httpapi.NewMux(c.Service, siteDir)
	readings.RegisterFeature(mux, c.Service)
	c.Handler = httpapi.Wrap(mux)
	return c, nil
}

func buildRepository(ctx context.Context, cfg config.Config, logger *slog.Logger, loadAWS func() (aws.Config, error), c *Components) (repository.ReadingRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		conn, err := db.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { return db.Close(conn) })
		if err := migrate.Run(ctx, conn); err != nil {
			return nil, err
		}
		return repository.NewSQLiteRepository(conn), nil

	case config.StoreDynamoDB:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
			}
		})
		return repository.NewDynamoDBRepository(client, cfg.TableName), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func buildPublisher(cfg config.Config, loadAWS func() (aws.Config, error)) (publisher.Publisher, error) {
	switch cfg.PublishBackend {
	case config.PublishFS:
		return publisher.NewFSPublisher(cfg.PublishDir, cfg.PublishKey), nil

	case config.PublishS3:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
				// Local S3 emulators do not resolve virtual-hosted bucket names.
				o.UsePathStyle = true
			}
		})
		return publisher.NewS3Publisher(client, cfg.BucketName, cfg.PublishKey), nil

	default:
		return nil, fmt.Errorf("unknown publish backend %q", cfg.PublishBackend)
	}
}
