package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/imrishuroy/go-servientrega-webhook/internal/aws"
	"github.com/imrishuroy/go-servientrega-webhook/internal/config"
	"github.com/imrishuroy/go-servientrega-webhook/internal/handlers"
	"github.com/imrishuroy/go-servientrega-webhook/internal/ledger"
	"github.com/imrishuroy/go-servientrega-webhook/internal/logging"
	"github.com/imrishuroy/go-servientrega-webhook/internal/metrics"
	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
	"github.com/imrishuroy/go-servientrega-webhook/internal/pipeline"
	"github.com/imrishuroy/go-servientrega-webhook/internal/servientrega"
	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
	"github.com/imrishuroy/go-servientrega-webhook/internal/tracing"
)

const (
	serviceName = "servientrega-webhook"
	carrierName = "SERVIENTREGA"
)

func setupRouter(cfg handlers.HandlerConfig, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), tracing.Middleware(serviceName), logging.Middleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "PONG")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	handlers.RegisterWebhookRoutes(r, cfg)

	return r
}

// buildPipeline wires every collaborator from the configuration. AWS-backed
// components are attached only when their setting is present.
func buildPipeline(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*pipeline.Orchestrator, error) {
	store, err := odoo.Dial(ctx, odoo.Credentials{
		URL:      cfg.Odoo.URL,
		DB:       cfg.Odoo.DB,
		User:     cfg.Odoo.User,
		Password: cfg.Odoo.Password,
		Timeout:  cfg.Odoo.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to odoo: %w", err)
	}

	carrier := servientrega.NewClient(cfg.Carrier.Endpoint(), servientrega.Credentials{
		Login:       cfg.Carrier.Login,
		PasswordEnc: cfg.Carrier.PasswordEnc,
		BillingCode: cfg.Carrier.BillingCode,
		LoadName:    cfg.Carrier.LoadName,
	}, cfg.Carrier.Timeout)

	builder := shipping.NewBuilder(shipping.Contact{
		Name:    cfg.Sender.Name,
		Address: cfg.Sender.Address,
		City:    cfg.Sender.City,
		Country: cfg.Sender.Country,
		Phone:   cfg.Sender.Phone,
	})

	recorders := metrics.Multi{metrics.NewPrometheus(reg)}
	opts := []pipeline.Option{}

	if cfg.AWS.LedgerTable != "" || cfg.AWS.AlertsQueueURL != "" || cfg.AWS.MetricsNamespace != "" {
		clients, err := aws.NewAWSClients(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to init aws clients: %w", err)
		}
		if cfg.AWS.LedgerTable != "" {
			opts = append(opts, pipeline.WithLedger(ledger.NewStore(clients.DynamoDB, cfg.AWS.LedgerTable, ledger.DefaultTTL)))
		}
		if cfg.AWS.AlertsQueueURL != "" {
			opts = append(opts, pipeline.WithAlerter(aws.NewPublisher(clients.SQS, cfg.AWS.AlertsQueueURL)))
		}
		if cfg.AWS.MetricsNamespace != "" {
			recorders = append(recorders, metrics.NewCloudWatch(aws.NewCounterPublisher(clients.CloudWatch, cfg.AWS.MetricsNamespace)))
		}
	}
	opts = append(opts, pipeline.WithRecorder(recorders))

	return pipeline.New(store, carrier, builder, pipeline.Settings{
		CarrierName:        carrierName,
		CarrierProduction:  cfg.Carrier.Production,
		UpstreamProduction: cfg.Odoo.Production,
		TrackingBaseURL:    cfg.Carrier.TrackingBaseURL,
	}, opts...), nil
}

func environment(production bool) string {
	if production {
		return "PRODUCTION"
	}
	return "TEST"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(serviceName, cfg.LogLevel)

	shutdown, err := tracing.InitTracerProvider(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch, err := buildPipeline(context.Background(), cfg, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pipeline")
	}

	log.Info().
		Str("odoo_env", environment(cfg.Odoo.Production)).
		Str("odoo_url", cfg.Odoo.URL).
		Str("carrier_env", environment(cfg.Carrier.Production)).
		Str("carrier_url", cfg.Carrier.Endpoint()).
		Bool("ledger", cfg.AWS.LedgerTable != "").
		Bool("alerts", cfg.AWS.AlertsQueueURL != "").
		Msg("servientrega webhook starting")

	r := setupRouter(handlers.HandlerConfig{Pipeline: orch}, reg)

	// if RUN_LOCAL is set, run local HTTP server for development.
	if cfg.RunLocal {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("addr", addr).Msg("running local server")
		if err := r.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
