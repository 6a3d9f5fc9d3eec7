package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/imrishuroy/go-servientrega-webhook/internal/aws"
	"github.com/imrishuroy/go-servientrega-webhook/internal/config"
	"github.com/imrishuroy/go-servientrega-webhook/internal/ledger"
	"github.com/imrishuroy/go-servientrega-webhook/internal/logging"
	"github.com/imrishuroy/go-servientrega-webhook/internal/odoo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup("servientrega-reconciler", cfg.LogLevel)
	ctx := context.Background()

	store, err := odoo.Dial(ctx, odoo.Credentials{
		URL:      cfg.Odoo.URL,
		DB:       cfg.Odoo.DB,
		User:     cfg.Odoo.User,
		Password: cfg.Odoo.Password,
		Timeout:  cfg.Odoo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to odoo")
	}

	var reconciler Reconciler
	if cfg.AWS.LedgerTable != "" {
		clients, err := aws.NewAWSClients(ctx, cfg.AWS.Region)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init aws clients")
		}
		reconciler = ledger.NewStore(clients.DynamoDB, cfg.AWS.LedgerTable, ledger.DefaultTTL)
	}

	p := NewProcessor(store, reconciler)

	// If RUN_LOCAL=true, check a single alert given in LOCAL_SQS_BODY.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			log.Fatal().Msg("LOCAL_SQS_BODY is required when RUN_LOCAL is set")
		}
		_ = p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local", Body: body}}})
		return
	}

	lambda.Start(p.Handle)
}
