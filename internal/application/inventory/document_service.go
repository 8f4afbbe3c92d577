package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
	"github.com/jhoicas/Inventario-erp/pkg/logger"
)

// DocumentService caso de uso que carga el documento, delega la decisión en el orquestador y
// persiste el resultado en una sola transacción: CAS sobre el estado, stock y movimientos.
type DocumentService struct {
	orch      *workflow.Orchestrator
	docs      repository.DocumentRepository
	movements repository.LedgerMovementRepository
	factors   *FactorCache
	txRunner  TxRunner
	log       *logger.Logger
}

// NewDocumentService construye el caso de uso. log nil descarta los eventos.
func NewDocumentService(
	orch *workflow.Orchestrator,
	docs repository.DocumentRepository,
	movements repository.LedgerMovementRepository,
	factors *FactorCache,
	txRunner TxRunner,
	log *logger.Logger,
) *DocumentService {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentService{
		orch:      orch,
		docs:      docs,
		movements: movements,
		factors:   factors,
		txRunner:  txRunner,
		log:       log,
	}
}

// operation decisión del orquestador sobre un documento ya cargado.
type operation func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error)

// Get devuelve un documento de la empresa.
func (s *DocumentService) Get(ctx context.Context, companyID, id string) (*entity.Document, error) {
	return s.docs.GetByID(ctx, companyID, id)
}

// Movements lista los movimientos del libro generados por un documento.
func (s *DocumentService) Movements(ctx context.Context, companyID, id string) ([]*entity.LedgerMovement, error) {
	doc, err := s.docs.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.movements.ListByReference(ctx, companyID, doc.Header.Kind, doc.Header.ID)
}

// Convert convierte una cantidad con la tabla de factores de la empresa.
func (s *DocumentService) Convert(ctx context.Context, companyID string, qty decimal.Decimal, fromUomID, toUomID string) (decimal.Decimal, error) {
	table, err := s.factors.Table(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	return table.Convert(qty, fromUomID, toUomID)
}

// InvalidateFactors descarta la tabla de factores en caché de la empresa.
func (s *DocumentService) InvalidateFactors(companyID string) {
	s.factors.Invalidate(companyID)
	s.log.Info().Str("company_id", companyID).Msg("tabla de factores invalidada")
}

// Reconcile compara esperado contra real con los umbrales del tipo de documento.
func (s *DocumentService) Reconcile(kind entity.DocumentKind, expected, actual decimal.Decimal, unitCost *decimal.Decimal) reconciliation.Result {
	th := s.orch.Policy(kind).Thresholds
	if th.Warning.IsZero() && th.Critical.IsZero() {
		th = reconciliation.DefaultQuantityThresholds
	}
	return reconciliation.Reconcile(expected, actual, unitCost, th)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func (s *DocumentService) CreateTransfer(ctx context.Context, cmd workflow.CreateTransferCommand) (*workflow.Result, error) {
	return s.create(ctx, entity.KindTransfer, cmd.CompanyID, func(conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.CreateTransfer(ctx, cmd, conv)
	})
}

func (s *DocumentService) ApproveTransfer(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "approve", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.ApproveTransfer(doc, actor)
	})
}

func (s *DocumentService) SendTransfer(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "send", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.SendTransfer(doc, actor)
	})
}

func (s *DocumentService) ReceiveTransfer(ctx context.Context, companyID, id string, cmd workflow.ReceiveCommand) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "receive", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.ReceiveTransfer(doc, cmd, conv)
	})
}

func (s *DocumentService) CancelTransfer(ctx context.Context, companyID, id, actor, reason string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "cancel", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.CancelTransfer(doc, actor, reason)
	})
}

func (s *DocumentService) PostTransfer(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "post", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.PostTransfer(doc, actor, conv)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func (s *DocumentService) CreateReturnOrder(ctx context.Context, cmd workflow.CreateReturnCommand) (*workflow.Result, error) {
	return s.create(ctx, entity.KindReturnOrder, cmd.CompanyID, func(conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.CreateReturnOrder(ctx, cmd, conv)
	})
}

func (s *DocumentService) ApproveReturn(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "approve", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.ApproveReturn(doc, actor)
	})
}

func (s *DocumentService) RejectReturn(ctx context.Context, companyID, id, actor, reason string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "reject", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.RejectReturn(doc, actor, reason)
	})
}

func (s *DocumentService) RecordReturnQuantities(ctx context.Context, companyID, id, actor string, entries []workflow.QuantityEntry) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "record_quantities", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.RecordReturnQuantities(doc, actor, entries, conv)
	})
}

func (s *DocumentService) PostReturn(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "post", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.PostReturn(doc, actor, conv)
	})
}

func (s *DocumentService) CompleteReturn(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "complete", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.CompleteReturn(doc, actor)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteos físicos
// ──────────────────────────────────────────────────────────────────────────────

func (s *DocumentService) CreateStockCount(ctx context.Context, cmd workflow.CreateStockCountCommand) (*workflow.Result, error) {
	return s.create(ctx, entity.KindStockCount, cmd.CompanyID, func(conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.CreateStockCount(ctx, cmd, conv)
	})
}

func (s *DocumentService) StartStockCount(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "start", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.StartStockCount(doc, actor)
	})
}

func (s *DocumentService) CountLines(ctx context.Context, companyID, id, actor string, entries []workflow.QuantityEntry) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "count", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.CountLines(doc, actor, entries, conv)
	})
}

func (s *DocumentService) CompleteStockCount(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "complete", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.CompleteStockCount(doc, actor)
	})
}

func (s *DocumentService) PostStockCount(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "post", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.PostStockCount(doc, actor, conv)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de producción
// ──────────────────────────────────────────────────────────────────────────────

func (s *DocumentService) CreateProductionOrder(ctx context.Context, cmd workflow.CreateProductionCommand) (*workflow.Result, error) {
	return s.create(ctx, entity.KindProductionOrder, cmd.CompanyID, func(conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.CreateProductionOrder(ctx, cmd, conv)
	})
}

func (s *DocumentService) ReleaseProduction(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "release", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.ReleaseProduction(doc, actor)
	})
}

func (s *DocumentService) StartProduction(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "start", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.StartProduction(doc, actor)
	})
}

func (s *DocumentService) RecordProduction(ctx context.Context, companyID, id, actor string, entries []workflow.QuantityEntry) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "record", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.RecordProduction(doc, actor, entries, conv)
	})
}

func (s *DocumentService) CompleteProduction(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "complete", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.CompleteProduction(doc, actor)
	})
}

func (s *DocumentService) PostProduction(ctx context.Context, companyID, id, actor string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "post", func(doc entity.Document, conv workflow.Converter) (*workflow.Result, error) {
		return s.orch.PostProduction(doc, actor, conv)
	})
}

func (s *DocumentService) CancelProduction(ctx context.Context, companyID, id, actor, reason string) (*workflow.Result, error) {
	return s.apply(ctx, companyID, id, "cancel", func(doc entity.Document, _ workflow.Converter) (*workflow.Result, error) {
		return s.orch.CancelProduction(doc, actor, reason)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Persistencia
// ──────────────────────────────────────────────────────────────────────────────

// create carga la tabla de unidades de la empresa para validar las líneas antes de numerar y guardar.
func (s *DocumentService) create(ctx context.Context, kind entity.DocumentKind, companyID string, fn func(workflow.Converter) (*workflow.Result, error)) (*workflow.Result, error) {
	table, err := s.factors.Table(ctx, companyID)
	if err != nil {
		return nil, err
	}
	res, err := fn(table)
	if err != nil {
		s.rejected(kind, companyID, "", "create", err)
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		_ repository.LedgerMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductCostRepository,
	) error {
		return docRepo.Create(ctx, &res.Document)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("company_id", companyID).
		Str("document_id", res.Document.Header.ID).
		Str("number", res.Document.Header.Number).
		Str("kind", string(kind)).
		Str("status", string(res.Document.Header.Status)).
		Msg("documento creado")
	return res, nil
}

// apply carga el documento, ejecuta la operación y persiste el resultado. Si el estado almacenado
// cambió entre la lectura y el guardado, Save devuelve domain.ErrConflict y nada se aplica.
func (s *DocumentService) apply(ctx context.Context, companyID, id, op string, fn operation) (*workflow.Result, error) {
	doc, err := s.docs.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	table, err := s.factors.Table(ctx, companyID)
	if err != nil {
		return nil, err
	}
	res, err := fn(*doc, table)
	if err != nil {
		s.rejected(doc.Header.Kind, companyID, id, op, err)
		return nil, err
	}

	expected := doc.Header.Status
	err = s.txRunner.Run(ctx, func(
		docRepo repository.DocumentRepository,
		movRepo repository.LedgerMovementRepository,
		stockRepo repository.StockRepository,
		costRepo repository.ProductCostRepository,
	) error {
		if err := docRepo.Save(ctx, &res.Document, expected); err != nil {
			return err
		}
		if len(res.Movements) == 0 {
			return nil
		}
		applied, err := applyLedger(ctx, movRepo, stockRepo, costRepo, res.Movements)
		if err != nil {
			return err
		}
		res.Movements = applied
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInsufficientStock) {
			s.log.Warn().Err(err).Str("document_id", id).Str("operation", op).Msg("operación no aplicada")
		}
		return nil, err
	}

	if res.Transition != nil {
		ev := s.log.Info().
			Str("company_id", companyID).
			Str("document_id", id).
			Str("kind", string(doc.Header.Kind)).
			Str("operation", op).
			Str("from", string(res.Transition.From)).
			Str("to", string(res.Transition.To)).
			Int("movements", len(res.Movements))
		if res.Summary != nil {
			ev = ev.Str("worst_alert", string(res.Summary.WorstLevel))
		}
		ev.Msg("transición de documento")
	}
	if res.Temperature != nil && res.Temperature.AlertLevel != reconciliation.AlertOK {
		s.log.Warn().
			Str("document_id", id).
			Str("observed", res.Temperature.Observed.String()).
			Str("alert", string(res.Temperature.AlertLevel)).
			Msg("desviación de temperatura en recepción")
	}
	return res, nil
}

func (s *DocumentService) rejected(kind entity.DocumentKind, companyID, id, op string, err error) {
	rule := domain.RuleOf(err)
	if rule == "" {
		return
	}
	s.log.Warn().
		Str("company_id", companyID).
		Str("document_id", id).
		Str("kind", string(kind)).
		Str("operation", op).
		Str("rule", rule).
		Msg(err.Error())
}
