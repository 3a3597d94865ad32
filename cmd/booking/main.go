package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/rentora/backoffice/config"
	"github.com/rentora/backoffice/internal/auth"
	"github.com/rentora/backoffice/internal/booking/client"
	"github.com/rentora/backoffice/internal/booking/handler"
	"github.com/rentora/backoffice/internal/booking/models"
	"github.com/rentora/backoffice/internal/booking/repository"
	"github.com/rentora/backoffice/internal/booking/service"
	"github.com/rentora/backoffice/internal/middleware"
	"github.com/rentora/backoffice/pkg/database"
	"github.com/rentora/backoffice/pkg/rabbitmq"
)

func main() {
	cfg := config.Load("BOOKING")

	db := database.NewPostgresDB(cfg.DSN())
	models.Migrate(db)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	repo := repository.NewBookingRepository(db)
	propertyClient := client.NewPropertyClient(cfg.PropertyServiceURL)
	svc := service.NewBookingService(repo, propertyClient, publisher)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "booking-service"})
	})

	api := e.Group("/api/v1", auth.Middleware(cfg.JWTSecret))
	handler.NewBookingHandler(svc).RegisterRoutes(api)

	log.Printf("Booking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
