package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/controllers"
	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/cache"
	"github.com/voxnote/voxnote/internal/pkg/codes"
	"github.com/voxnote/voxnote/internal/pkg/database"
	"github.com/voxnote/voxnote/internal/pkg/env"
	"github.com/voxnote/voxnote/internal/pkg/export"
	"github.com/voxnote/voxnote/internal/pkg/middleware"
	"github.com/voxnote/voxnote/internal/pkg/quota"
	"github.com/voxnote/voxnote/internal/pkg/ratelimit"
	"github.com/voxnote/voxnote/internal/pkg/summarize"
	"github.com/voxnote/voxnote/internal/pkg/token"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	db := database.GetDB()

	// Repositories and the token service back the global UserContext
	// middleware, so they are wired before any route.
	repository.InitializeFactory(db)
	middleware.Setup(token.NewServiceFromEnv())

	app.Use(middleware.UserContextMiddleware)

	factory := repository.GetGlobalFactory()
	controllers.Initialize(
		codes.NewIssuer(db),
		quota.NewAccountant(factory.GetUserRepository(), factory.GetPlanRepository()),
		summarize.NewClient(env.GetEnv("OPENAI_API_KEY", "")),
		export.NewDriveExporter(),
		ratelimit.New(cache.GetClient(), "summarize",
			env.GetEnvInt("SUMMARIZE_RATE_PER_MINUTE", 5),
			env.GetEnvInt("SUMMARIZE_RATE_PER_DAY", 100)),
	)

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/", controllers.HandleIndex)
	app.Get("/privacy", controllers.HandlePrivacy)
	app.Get("/terms", controllers.HandleTerms)
	app.Get("/verify", controllers.HandleVerifyLink)

	app.Get("/ws/stt", controllers.HandleSTTUpgrade, controllers.HandleSTTStream)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
