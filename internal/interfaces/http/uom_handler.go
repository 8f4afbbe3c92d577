package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-erp/internal/application/dto"
	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// UOMHandler conversión de unidades y cálculo de varianzas sin documento (protegido).
type UOMHandler struct {
	svc *inventory.DocumentService
}

// NewUOMHandler construye el handler.
func NewUOMHandler(svc *inventory.DocumentService) *UOMHandler {
	return &UOMHandler{svc: svc}
}

// Convert godoc
// @Summary      Convertir cantidad entre unidades
// @Tags         uoms
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConvertRequest  true  "Cantidad y unidades"
// @Success      200   {object}  dto.ConvertResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/uoms/convert [post]
func (h *UOMHandler) Convert(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ConvertRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	qty, err := h.svc.Convert(c.Context(), companyID, in.Quantity, in.FromUomID, in.ToUomID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ConvertResponse{Quantity: qty, UomID: in.ToUomID})
}

// InvalidateCache godoc
// @Summary      Descartar la tabla de factores en caché
// @Description  Llamar después de modificar unidades o factores de la empresa.
// @Tags         uoms
// @Security     Bearer
// @Success      204
// @Router       /api/uoms/cache/invalidate [post]
func (h *UOMHandler) InvalidateCache(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	h.svc.InvalidateFactors(companyID)
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile godoc
// @Summary      Calcular varianza esperado vs. real
// @Tags         reconcile
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReconcileRequest  true  "Esperado, real y costo unitario opcional"
// @Success      200   {object}  dto.VarianceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/reconcile [post]
func (h *UOMHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	kind := entity.DocumentKind(in.Kind)
	if kind == "" {
		kind = entity.KindStockCount
	}
	res := h.svc.Reconcile(kind, in.Expected, in.Actual, in.UnitCost)
	return c.JSON(inventory.ToVarianceResponse(res))
}
