package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppmc/flowbridge/internal/config"
	"github.com/ppmc/flowbridge/internal/log"
	"github.com/ppmc/flowbridge/internal/notify"
	"github.com/ppmc/flowbridge/internal/otel"
	"github.com/ppmc/flowbridge/internal/rest"
	"github.com/ppmc/flowbridge/pkg/approval"
	"github.com/ppmc/flowbridge/pkg/engine"
	"github.com/ppmc/flowbridge/pkg/erp"
	"github.com/ppmc/flowbridge/pkg/storage/inmemory"
)

func main() {
	log.Init()

	appContext, ctxCancel := context.WithCancel(context.Background())

	conf := config.InitConfig()

	openTelemetry, err := otel.SetupOtel(conf.Tracing)
	if err != nil {
		log.Error("Failed to set up OTEL: %s", err)
		os.Exit(1)
	}

	store := inmemory.NewStorage()

	engineClient := engine.NewHTTPClient(engine.HTTPClientConfig{
		Endpoint: conf.Engine.Endpoint,
		Tenant:   conf.Engine.Tenant,
		Timeout:  conf.Engine.Timeout,
	})

	texts, err := notify.LoadTexts(conf.Notify.TemplateFile)
	if err != nil {
		log.Error("Failed to load notification texts: %s", err)
		os.Exit(1)
	}
	grace, err := conf.Escalation.GraceDuration()
	if err != nil {
		log.Error("Invalid escalation grace period: %s", err)
		os.Exit(1)
	}

	var mailer notify.Mailer
	if conf.Mail.Mock {
		mailer = notify.NewLogMailer()
	} else {
		mailer, err = notify.NewSMTPMailer(conf.Mail)
		if err != nil {
			log.Error("Failed to set up SMTP mailer: %s", err)
			os.Exit(1)
		}
	}
	dispatcher := notify.NewDispatcher(mailer, store, texts, grace, conf.Notify.QueueSize)
	dispatcher.Start()

	var erpService erp.Service
	if conf.Erp.Mock {
		erpService = erp.NewMock()
	} else {
		erpService = erp.NewHTTPService(conf.Erp.Endpoint)
	}

	approvalService := approval.NewService(engineClient, store, dispatcher, erpService)

	// Start the public API
	svr := rest.NewServer(approvalService, dispatcher, conf)
	svr.Start()

	appStop := make(chan os.Signal, 2)
	signal.Notify(appStop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	handleSigterm(appStop, appContext)

	ctxCancel()
	// cleanup
	svr.Stop(appContext)
	dispatcher.Stop()
	openTelemetry.Stop(appContext)
}

func handleSigterm(appStop chan os.Signal, ctx context.Context) {
	signal.Notify(appStop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-appStop
	log.Infof(ctx, "Received %s. Shutting down", sig.String())
}
