package usecase

import (
	"go.uber.org/fx"

	"docuflow/internal/infrastructure/redis"
)

func newDocumentLocker(client *redis.RedisClient) DocumentLocker {
	return client
}

var Module = fx.Module("usecase",
	fx.Provide(newDocumentLocker),
	fx.Provide(NewDocumentUsecase),
	fx.Provide(NewSigningUsecase),
)
