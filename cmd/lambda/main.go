// Command lambda serves POST /save and GET /get behind API Gateway proxy
// integrations. Configuration comes from the function environment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/app"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/config"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/logging"
)

const appName = "airquality-lambda"

var version = "lambda"

type proxyHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// newProxyHandler adapts the built HTTP handler to API Gateway proxy events.
// The handler is uncompressed; REST API Gateway has no binary media types
// configured and would pass a gzip body through as base64 text.
func newProxyHandler(c *app.Components) proxyHandler {
	return httpadapter.New(c.Handler).ProxyWithContext
}

func main() {
	cfg, err := config.LoadForLambda()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg, version, appName)
	slog.SetDefault(logger)

	// Clients are built once per cold start and reused across invocations.
	components, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("build failed", "err", err)
		os.Exit(1)
	}

	lambda.Start(newProxyHandler(components))
}
