package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-erp/internal/application/dto"
	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// DocumentHandler maneja traslados, devoluciones, conteos y órdenes de producción (protegido).
type DocumentHandler struct {
	svc *inventory.DocumentService
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(svc *inventory.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type documentOp func(companyID, actor, id string) (*workflow.Result, error)

// run resuelve identidad y path, ejecuta la operación y escribe el resultado.
func (h *DocumentHandler) run(c *fiber.Ctx, status int, op documentOp) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	res, err := op(companyID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(inventory.ToResultResponse(res))
}

// GetByID godoc
// @Summary      Obtener documento de inventario
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	doc, err := h.svc.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDocumentResponse(doc))
}

// Movements godoc
// @Summary      Movimientos del libro generados por un documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/movements [get]
func (h *DocumentHandler) Movements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	list, err := h.svc.Movements(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToMovementResponses(list))
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

// CreateTransfer godoc
// @Summary      Crear traslado entre bodegas
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Origen, destino y líneas"
// @Success      201   {object}  dto.DocumentResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *DocumentHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusCreated, func(companyID, actor, _ string) (*workflow.Result, error) {
		return h.svc.CreateTransfer(c.Context(), workflow.CreateTransferCommand{
			CompanyID:      companyID,
			Actor:          actor,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			Lines:          lineInputs(in.Lines),
			Metadata:       in.Metadata,
		})
	})
}

// ApproveTransfer godoc
// @Summary      Aprobar traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.DocumentResultResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *DocumentHandler) ApproveTransfer(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.ApproveTransfer(c.Context(), companyID, id, actor)
	})
}

// SendTransfer godoc
// @Summary      Despachar traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.DocumentResultResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/send [post]
func (h *DocumentHandler) SendTransfer(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.SendTransfer(c.Context(), companyID, id, actor)
	})
}

// ReceiveTransfer godoc
// @Summary      Recibir traslado (parcial o total)
// @Description  Registra cantidades recibidas por línea; opcionalmente la temperatura de recepción.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del traslado"
// @Param        body  body  dto.ReceiveRequest   true  "Cantidades recibidas"
// @Success      200   {object}  dto.DocumentResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *DocumentHandler) ReceiveTransfer(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		cmd := workflow.ReceiveCommand{Actor: actor, Entries: quantityEntries(in.Entries)}
		if in.Temperature != nil {
			cmd.Temperature = &workflow.TemperatureReading{Target: in.Temperature.Target, Observed: in.Temperature.Observed}
		}
		return h.svc.ReceiveTransfer(c.Context(), companyID, id, cmd)
	})
}

// CancelTransfer godoc
// @Summary      Cancelar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del traslado"
// @Param        body  body  dto.ReasonRequest  true  "Motivo"
// @Success      200   {object}  dto.DocumentResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *DocumentHandler) CancelTransfer(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CancelTransfer(c.Context(), companyID, id, actor, in.Reason)
	})
}

// PostTransfer godoc
// @Summary      Contabilizar traslado
// @Description  Emite TRANSFER_OUT en origen y TRANSFER_IN en destino por la cantidad recibida.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.DocumentResultResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/post [post]
func (h *DocumentHandler) PostTransfer(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.PostTransfer(c.Context(), companyID, id, actor)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

// CreateReturn godoc
// @Summary      Crear devolución de cliente o a proveedor
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReturnRequest  true  "Dirección, bodega y líneas"
// @Success      201   {object}  dto.DocumentResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *DocumentHandler) CreateReturn(c *fiber.Ctx) error {
	var in dto.CreateReturnRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusCreated, func(companyID, actor, _ string) (*workflow.Result, error) {
		return h.svc.CreateReturnOrder(c.Context(), workflow.CreateReturnCommand{
			CompanyID:  companyID,
			Actor:      actor,
			Direction:  entity.ReturnDirection(in.Direction),
			PartnerID:  in.PartnerID,
			LocationID: in.LocationID,
			Reason:     in.Reason,
			Lines:      lineInputs(in.Lines),
			Metadata:   in.Metadata,
		})
	})
}

func (h *DocumentHandler) ApproveReturn(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.ApproveReturn(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) RejectReturn(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.RejectReturn(c.Context(), companyID, id, actor, in.Reason)
	})
}

// RecordReturnQuantities godoc
// @Summary      Registrar cantidades recibidas de la devolución
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la devolución"
// @Param        body  body  dto.QuantitiesRequest  true  "Cantidades por línea"
// @Success      200   {object}  dto.DocumentResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/quantities [post]
func (h *DocumentHandler) RecordReturnQuantities(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.RecordReturnQuantities(c.Context(), companyID, id, actor, quantityEntries(in.Entries))
	})
}

func (h *DocumentHandler) PostReturn(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.PostReturn(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) CompleteReturn(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CompleteReturn(c.Context(), companyID, id, actor)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteos físicos
// ──────────────────────────────────────────────────────────────────────────────

// CreateStockCount godoc
// @Summary      Crear conteo físico
// @Description  planned_qty de cada línea es la existencia según sistema (puede ser cero).
// @Tags         stock-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockCountRequest  true  "Bodega y líneas"
// @Success      201   {object}  dto.DocumentResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-counts [post]
func (h *DocumentHandler) CreateStockCount(c *fiber.Ctx) error {
	var in dto.CreateStockCountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusCreated, func(companyID, actor, _ string) (*workflow.Result, error) {
		return h.svc.CreateStockCount(c.Context(), workflow.CreateStockCountCommand{
			CompanyID:  companyID,
			Actor:      actor,
			LocationID: in.LocationID,
			Lines:      lineInputs(in.Lines),
			Metadata:   in.Metadata,
		})
	})
}

func (h *DocumentHandler) StartStockCount(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.StartStockCount(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) CountLines(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CountLines(c.Context(), companyID, id, actor, quantityEntries(in.Entries))
	})
}

func (h *DocumentHandler) CompleteStockCount(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CompleteStockCount(c.Context(), companyID, id, actor)
	})
}

// PostStockCount godoc
// @Summary      Contabilizar conteo físico
// @Description  Emite un ADJUSTMENT por cada línea con diferencia; falla si alguna línea no fue contada.
// @Tags         stock-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.DocumentResultResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/stock-counts/{id}/post [post]
func (h *DocumentHandler) PostStockCount(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.PostStockCount(c.Context(), companyID, id, actor)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de producción
// ──────────────────────────────────────────────────────────────────────────────

// CreateProductionOrder godoc
// @Summary      Crear orden de producción
// @Description  Requiere al menos una línea input y una output.
// @Tags         production-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductionRequest  true  "Bodega y líneas"
// @Success      201   {object}  dto.DocumentResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/production-orders [post]
func (h *DocumentHandler) CreateProductionOrder(c *fiber.Ctx) error {
	var in dto.CreateProductionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusCreated, func(companyID, actor, _ string) (*workflow.Result, error) {
		return h.svc.CreateProductionOrder(c.Context(), workflow.CreateProductionCommand{
			CompanyID:  companyID,
			Actor:      actor,
			LocationID: in.LocationID,
			Lines:      lineInputs(in.Lines),
			Metadata:   in.Metadata,
		})
	})
}

func (h *DocumentHandler) ReleaseProduction(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.ReleaseProduction(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) StartProduction(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.StartProduction(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) RecordProduction(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.RecordProduction(c.Context(), companyID, id, actor, quantityEntries(in.Entries))
	})
}

func (h *DocumentHandler) CompleteProduction(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CompleteProduction(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) PostProduction(c *fiber.Ctx) error {
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.PostProduction(c.Context(), companyID, id, actor)
	})
}

func (h *DocumentHandler) CancelProduction(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return h.run(c, fiber.StatusOK, func(companyID, actor, id string) (*workflow.Result, error) {
		return h.svc.CancelProduction(c.Context(), companyID, id, actor, in.Reason)
	})
}

func lineInputs(in []dto.LineRequest) []workflow.LineInput {
	out := make([]workflow.LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, workflow.LineInput{
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			UomID:      l.UomID,
			BaseUomID:  l.BaseUomID,
			Role:       entity.LineRole(l.Role),
			PlannedQty: l.PlannedQty,
			UnitCost:   l.UnitCost,
		})
	}
	return out
}

func quantityEntries(in []dto.QuantityEntryRequest) []workflow.QuantityEntry {
	out := make([]workflow.QuantityEntry, 0, len(in))
	for _, e := range in {
		out = append(out, workflow.QuantityEntry{LineID: e.LineID, Quantity: e.Quantity, UomID: e.UomID})
	}
	return out
}
