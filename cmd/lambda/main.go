package main

import (
	"log"

	"storefront-service/config"
	"storefront-service/internal/app"
	"storefront-service/internal/lambdaproxy"
	"storefront-service/internal/util"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	if _, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	a := app.New(cfg)
	defer a.Close()

	lambda.Start(lambdaproxy.New(a.Router).Handle)
}
