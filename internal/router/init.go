package router

import (
	"github.com/account-kit/user-service/internal/application"
	"github.com/account-kit/user-service/internal/container"
	gcsinfra "github.com/account-kit/user-service/internal/infrastructure/gcs"
	pginfra "github.com/account-kit/user-service/internal/infrastructure/postgres"
	handlers "github.com/account-kit/user-service/internal/interface/http"
	"github.com/account-kit/user-service/internal/router/modules"
)

func buildUserModule() *modules.UserModule {
	cfg := container.GetConfig()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	imageStore := gcsinfra.NewImageStore(container.GetGCS(), cfg.GCSBucket)

	usecase := application.NewUserUseCase(
		userRepo,
		imageStore,
		container.GetJWT(),
		cfg.ImageBaseURL,
		cfg.BcryptCost,
		container.GetRedis(),
		container.GetLogger(),
		container.GetRabbitPub(),
		container.GetES(),
		cfg.ESUsersIndex,
	)

	handler := handlers.NewUserHandler(usecase, container.GetLogger())
	return modules.NewUserModule(handler)
}

// InitModules wires all feature modules into the registry. Called once during
// startup, after the container singletons are set.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
