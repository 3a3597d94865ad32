package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/rentora/backoffice/config"
	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/middleware"
	"github.com/rentora/backoffice/internal/sales/consumer"
	"github.com/rentora/backoffice/internal/sales/models"
	"github.com/rentora/backoffice/pkg/database"
	"github.com/rentora/backoffice/pkg/rabbitmq"
)

func main() {
	cfg := config.Load("SALES")

	db := database.NewPostgresDB(cfg.DSN())
	models.Migrate(db)

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, "sales-service.booking-confirmed",
		[]string{contracts.RoutingKeyBookingConfirmed})
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	consumer.NewBookingConfirmedConsumer(db).Start(msgs)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "sales-service"})
	})

	log.Printf("Sales Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
