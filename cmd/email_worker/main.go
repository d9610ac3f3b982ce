package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/simplecrud/users-service/config"
	"github.com/simplecrud/users-service/pkg/helpers"
	"github.com/simplecrud/users-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	// prefetch keeps dispatch fair across workers
	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase, cfg.MailgunTag)
	ctx, stopCtx := context.WithCancel(context.Background())
	defer stopCtx()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			job, err := mailer.DecodeJob(msg.Body)
			if err != nil {
				logger.WithError(err).Warn("dropping message")
				_ = msg.Nack(false, false)
				continue
			}

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err = mailer.Deliver(c, mg, job)
			cancel()
			switch {
			case errors.Is(err, mailer.ErrBadJob):
				logger.WithError(err).WithField("template", job.Template).Warn("dropping message")
				_ = msg.Nack(false, false)
			case err != nil:
				logger.WithError(err).WithField("to", job.To).Error("send failed; requeueing")
				_ = msg.Nack(false, true)
			default:
				logger.WithField("to", job.To).WithField("template", job.Template).Info("email sent")
				_ = msg.Ack(false)
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	stopCtx()
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
