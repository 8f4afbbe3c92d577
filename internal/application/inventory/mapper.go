package inventory

import (
	"github.com/jhoicas/Inventario-erp/internal/application/dto"
	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
)

// ToResultResponse arma la respuesta HTTP de una operación sobre un documento.
func ToResultResponse(res *workflow.Result) *dto.DocumentResultResponse {
	out := &dto.DocumentResultResponse{Document: *ToDocumentResponse(&res.Document)}
	if res.Transition != nil {
		out.Transition = &dto.TransitionResponse{From: string(res.Transition.From), To: string(res.Transition.To)}
	}
	if res.Summary != nil {
		out.Summary = &dto.SummaryResponse{
			Lines:         res.Summary.Lines,
			ExpectedQty:   res.Summary.ExpectedQty,
			ActualQty:     res.Summary.ActualQty,
			VarianceQty:   res.Summary.VarianceQty,
			VarianceValue: res.Summary.VarianceValue,
			WorstLevel:    string(res.Summary.WorstLevel),
		}
	}
	if res.Temperature != nil {
		out.Temperature = &dto.TemperatureResponse{
			Target:     res.Temperature.Target,
			Observed:   res.Temperature.Observed,
			Deviation:  res.Temperature.Deviation,
			AlertLevel: string(res.Temperature.AlertLevel),
		}
	}
	for i := range res.Movements {
		out.Movements = append(out.Movements, toMovementResponse(&res.Movements[i]))
	}
	return out
}

// ToDocumentResponse cabecera y líneas del documento.
func ToDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	h := d.Header
	out := &dto.DocumentResponse{
		ID:             h.ID,
		Kind:           string(h.Kind),
		Number:         h.Number,
		Status:         string(h.Status),
		FromLocationID: h.FromLocationID,
		ToLocationID:   h.ToLocationID,
		LocationID:     h.LocationID,
		Direction:      string(h.Direction),
		PartnerID:      h.PartnerID,
		Reason:         h.Reason,
		RequestedBy:    h.RequestedBy,
		ApprovedBy:     h.ApprovedBy,
		PostedBy:       h.PostedBy,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
		PostedAt:       h.PostedAt,
		Metadata:       h.Metadata,
		Lines:          make([]dto.LineResponse, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		lr := dto.LineResponse{
			ID:         l.ID,
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			UomID:      l.UomID,
			BaseUomID:  l.BaseUomID,
			Role:       string(l.Role),
			PlannedQty: l.PlannedQty,
			ActualQty:  l.ActualQty,
			UnitCost:   l.UnitCost,
		}
		if l.Variance != nil {
			lr.Variance = ToVarianceResponse(*l.Variance)
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}

// ToVarianceResponse resultado del calculador de varianzas.
func ToVarianceResponse(r reconciliation.Result) *dto.VarianceResponse {
	return &dto.VarianceResponse{
		ExpectedQty:     r.ExpectedQty,
		ActualQty:       r.ActualQty,
		VarianceQty:     r.VarianceQty,
		VariancePercent: r.VariancePercent,
		VarianceValue:   r.VarianceValue,
		AlertLevel:      string(r.AlertLevel),
	}
}

// ToMovementResponses movimientos del libro de un documento.
func ToMovementResponses(list []*entity.LedgerMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toMovementResponse(m *entity.LedgerMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		LocationID:   m.LocationID,
		LotID:        m.LotID,
		Type:         m.Type,
		QtyDeltaBase: m.QtyDeltaBase,
		UnitCost:     m.UnitCost,
		CreatedAt:    m.CreatedAt,
	}
}
