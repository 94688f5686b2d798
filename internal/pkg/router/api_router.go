package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voxnote/voxnote/app/controllers"
	"github.com/voxnote/voxnote/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	app.Post("/register", controllers.HandleRegister)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", controllers.HandleLogout)

	app.Post("/email/verify/send", controllers.HandleResendCode)
	app.Post("/email/verify/check", controllers.HandleCheckPin)
	app.Post("/email/verify/cancel", controllers.HandleCancelSignup)

	app.Post("/auth/password-reset/request", controllers.HandlePasswordResetRequest)
	app.Post("/auth/password-reset/verify", controllers.HandlePasswordResetVerify)

	app.Get("/me", middleware.RequireAuth, controllers.HandleMe)
	app.Get("/me/quota", middleware.RequireAuth, controllers.HandleQuota)

	app.Post("/summarize", middleware.RequireAuth, controllers.HandleSummarize)
	app.Post("/save-to-drive", middleware.RequireAuth, controllers.HandleSaveToDrive)
	app.Post("/feedback", middleware.RequireAuth, controllers.HandleFeedback)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
