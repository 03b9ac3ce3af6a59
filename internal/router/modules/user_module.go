package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/account-kit/user-service/internal/container"
	handlers "github.com/account-kit/user-service/internal/interface/http"
	"github.com/account-kit/user-service/internal/interface/middleware"
)

// UserModule wires the user lifecycle routes.
// Public: POST /api/users, POST /api/users/login
// Token-bearing: GET/PUT/DELETE /api/users, GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	readLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users", registerLimiter, m.Handler.Create)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)

	rg.GET("/users", readLimiter, m.Handler.Get)
	rg.PUT("/users", readLimiter, m.Handler.Update)
	rg.DELETE("/users", readLimiter, m.Handler.Delete)
	rg.GET("/users/search", readLimiter, m.Handler.Search)
}
