package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/rentora/backoffice/config"
	"github.com/rentora/backoffice/internal/analytics/consumer"
	"github.com/rentora/backoffice/internal/analytics/models"
	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/middleware"
	"github.com/rentora/backoffice/pkg/database"
	"github.com/rentora/backoffice/pkg/rabbitmq"
)

func main() {
	cfg := config.Load("ANALYTICS")

	db := database.NewPostgresDB(cfg.DSN())
	models.Migrate(db)

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, "analytics-service.booking-events",
		[]string{contracts.RoutingKeyBookingConfirmed, contracts.RoutingKeyBookingCancelled})
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	consumer.NewBookingEventsConsumer(db).Start(msgs)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "analytics-service"})
	})

	log.Printf("Analytics Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
