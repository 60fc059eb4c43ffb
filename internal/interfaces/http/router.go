package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/application/opname"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OpnameUC    *opname.UseCase
	IngestUC    *ingest.UseCase
	JWTSecret   string
	AdminRoleID int
}

// Router registra las rutas de la API. Todas requieren Bearer Token;
// las de administración además RequireAdmin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireAdmin(deps.AdminRoleID)

	h := NewOpnameHandler(deps.OpnameUC)
	op := protected.Group("/opname")

	// Administración
	op.Post("/batch", admin, h.CreateBatch)
	op.Get("/batch", admin, h.ListBatches)
	op.Get("/batch/:id", admin, h.GetBatch)
	op.Get("/batch/:id/report", admin, h.BatchReport)
	op.Get("/assignment/:assignment_id", admin, h.GetAssignment)
	op.Delete("/assignment/:assignment_id", admin, h.DeleteAssignment)
	op.Post("/approve/:assignment_id", admin, h.Decide)
	op.Get("/assignments/active", admin, h.ListActiveAssignments)

	// Usuario asignado
	op.Get("/mytask", h.MyTask)
	op.Post("/claim/:assignment_id", h.ClaimTask)
	op.Post("/submit/:assignment_id", h.Submit)
	op.Get("/details/wh01/:assignment_id", h.ListCartonDetails)
	op.Put("/details/wh01/:detail_id", h.UpdateCartonDetail)
	op.Get("/products/:type/:assignment_id", h.ListTaskProducts)
	op.Get("/details/:type/:assignment_id/:product_id", h.ListContainerRows)
	op.Post("/details/:type", h.SaveContainerRow)
	op.Delete("/details/:type/:detail_id", h.DeleteContainerRow)

	uploads := NewUploadHandler(deps.IngestUC)
	protected.Post("/products/upload/:type", admin, uploads.Upload)
}
