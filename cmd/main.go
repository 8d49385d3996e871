package main

import (
	"go.uber.org/fx"

	"docuflow/internal/config"
	deliveryhttp "docuflow/internal/delivery/http"
	"docuflow/internal/infrastructure/artifact"
	"docuflow/internal/infrastructure/database"
	"docuflow/internal/infrastructure/logger"
	"docuflow/internal/infrastructure/redis"
	"docuflow/internal/infrastructure/repository"
	"docuflow/internal/infrastructure/stamper"
	"docuflow/internal/server"
	"docuflow/internal/usecase"
)

func main() {
	fx.New(
		// Configuration
		config.Module,

		// Infrastructure
		logger.Module,
		database.Module,
		redis.Module,
		artifact.Module,
		stamper.Module,
		repository.Module,

		// Business Logic
		usecase.Module,

		// Delivery
		deliveryhttp.Module,

		// Server
		server.Module,
	).Run()
}
