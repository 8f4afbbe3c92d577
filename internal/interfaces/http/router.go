package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/pkg/jwt"
	"github.com/jhoicas/Inventario-erp/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents *inventory.DocumentService
	Signer    *jwt.Signer
	Log       *logger.Logger // nil = sin log de peticiones
}

// Router registra las rutas de la API. Todo bajo /api requiere Bearer Token; aprobar, rechazar y
// contabilizar además exigen rol admin o bodeguero.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log != nil {
		app.Use(RequestLogger(deps.Log))
	}
	api := app.Group("/api", AuthMiddleware(deps.Signer))
	supervisor := RequireRole(RoleAdmin, RoleBodeguero)

	docs := NewDocumentHandler(deps.Documents)
	documents := api.Group("/documents")
	documents.Get("/:id", docs.GetByID)
	documents.Get("/:id/movements", docs.Movements)

	transfers := api.Group("/transfers")
	transfers.Post("/", docs.CreateTransfer)
	transfers.Post("/:id/approve", supervisor, docs.ApproveTransfer)
	transfers.Post("/:id/send", docs.SendTransfer)
	transfers.Post("/:id/receive", docs.ReceiveTransfer)
	transfers.Post("/:id/cancel", docs.CancelTransfer)
	transfers.Post("/:id/post", supervisor, docs.PostTransfer)

	returns := api.Group("/returns")
	returns.Post("/", docs.CreateReturn)
	returns.Post("/:id/approve", supervisor, docs.ApproveReturn)
	returns.Post("/:id/reject", supervisor, docs.RejectReturn)
	returns.Post("/:id/quantities", docs.RecordReturnQuantities)
	returns.Post("/:id/post", supervisor, docs.PostReturn)
	returns.Post("/:id/complete", docs.CompleteReturn)

	counts := api.Group("/stock-counts")
	counts.Post("/", docs.CreateStockCount)
	counts.Post("/:id/start", docs.StartStockCount)
	counts.Post("/:id/count", docs.CountLines)
	counts.Post("/:id/complete", docs.CompleteStockCount)
	counts.Post("/:id/post", supervisor, docs.PostStockCount)

	production := api.Group("/production-orders")
	production.Post("/", docs.CreateProductionOrder)
	production.Post("/:id/release", docs.ReleaseProduction)
	production.Post("/:id/start", docs.StartProduction)
	production.Post("/:id/record", docs.RecordProduction)
	production.Post("/:id/complete", docs.CompleteProduction)
	production.Post("/:id/post", supervisor, docs.PostProduction)
	production.Post("/:id/cancel", docs.CancelProduction)

	uoms := NewUOMHandler(deps.Documents)
	api.Post("/uoms/convert", uoms.Convert)
	api.Post("/uoms/cache/invalidate", uoms.InvalidateCache)
	api.Post("/reconcile", uoms.Reconcile)
}
