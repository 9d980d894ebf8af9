package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AnshRaj112/therapy-booking-backend/internal/config"
	"github.com/AnshRaj112/therapy-booking-backend/internal/database"
	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/notify"
	"github.com/AnshRaj112/therapy-booking-backend/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the notifier")
	}

	if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTPHost != "" {
		smtp, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatal("Failed to configure SMTP:", err)
		}
		mailer = smtp
		log.Printf("✅ SMTP configured (%s:%d)", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Println("Warning: SMTP_HOST not set. Emails will only be logged")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	queues := events.QueuesFor(cfg.RabbitMQQueue)
	if err := events.DeclareTopology(ch, queues); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewNotifier(repository.NewUserRepository(database.DB), mailer)
	consumer := notify.NewConsumer(ch, queues, notifier, cfg.NotifierConcurrency)
	if err := consumer.Run(ctx); err != nil {
		log.Printf("❌ notifier stopped: %v", err)
	}
}
