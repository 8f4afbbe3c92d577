package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
)

// DocumentKind tipo de documento de inventario; cada uno tiene su propio vocabulario de estados.
type DocumentKind string

const (
	KindTransfer        DocumentKind = "transfer"
	KindReturnOrder     DocumentKind = "return_order"
	KindStockCount      DocumentKind = "stock_count"
	KindProductionOrder DocumentKind = "production_order"
)

// Status estado de un documento. El significado depende del DocumentKind.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusRequested  Status = "requested"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusSent       Status = "sent"
	StatusReleased   Status = "released"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPosted     Status = "posted"
	StatusCancelled  Status = "cancelled"
)

// Prefijos de numeración por tipo de documento.
var documentPrefixes = map[DocumentKind]string{
	KindTransfer:        "TRF",
	KindReturnOrder:     "RET",
	KindStockCount:      "CNT",
	KindProductionOrder: "PRD",
}

// Prefix devuelve el prefijo de numeración del tipo (vacío si el tipo no existe).
func (k DocumentKind) Prefix() string {
	return documentPrefixes[k]
}

// FormatDocumentNumber arma el consecutivo PREFIX-YYYYMM-00001.
func FormatDocumentNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("200601"), seq)
}

// ReturnDirection origen de una devolución: define el signo del movimiento contable.
type ReturnDirection string

const (
	ReturnFromCustomer ReturnDirection = "customer" // entra stock
	ReturnToSupplier   ReturnDirection = "supplier" // sale stock
)

// LineRole rol de una línea en una orden de producción.
type LineRole string

const (
	RoleInput  LineRole = "input"  // material consumido
	RoleOutput LineRole = "output" // producto terminado
)

// DocumentHeader cabecera común a traslados, devoluciones, conteos y órdenes de producción.
// Solo cambia de estado vía transiciones aprobadas por la máquina de estados; nunca se elimina.
type DocumentHeader struct {
	ID             string
	CompanyID      string
	Kind           DocumentKind
	Number         string
	Status         Status
	FromLocationID string // traslado: bodega origen
	ToLocationID   string // traslado: bodega destino
	LocationID     string // devolución, conteo, producción
	Direction      ReturnDirection
	PartnerID      string // cliente o proveedor de la devolución
	Reason         string

	RequestedBy string
	ApprovedBy  string
	SentBy      string
	ReceivedBy  string
	ReviewedBy  string
	PostedBy    string

	CreatedAt   time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	SentAt      *time.Time
	ReceivedAt  *time.Time
	ReleasedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	PostedAt    *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time

	Metadata map[string]any
}

// DocumentLine línea de un documento. ActualQty es nil hasta que se registra.
type DocumentLine struct {
	ID         string
	DocumentID string
	ProductID  string
	LotID      string
	UomID      string // unidad canónica de la línea
	BaseUomID  string // unidad base del producto para el libro; vacío = UomID
	Role       LineRole
	PlannedQty decimal.Decimal
	ActualQty  *decimal.Decimal
	UnitCost   *decimal.Decimal
	Variance   *reconciliation.Result
}

// Recorded indica si la línea ya tiene cantidad real.
func (l DocumentLine) Recorded() bool {
	return l.ActualQty != nil
}

// LedgerUomID unidad en la que se expresa el movimiento contable de la línea.
func (l DocumentLine) LedgerUomID() string {
	if l.BaseUomID != "" {
		return l.BaseUomID
	}
	return l.UomID
}

// Document cabecera más líneas, totalmente hidratado por el colaborador de persistencia.
type Document struct {
	Header DocumentHeader
	Lines  []DocumentLine
}

// Clone copia profunda: el orquestador nunca muta el documento recibido.
func (d Document) Clone() Document {
	out := Document{Header: d.Header}
	out.Header.ApprovedAt = cloneTime(d.Header.ApprovedAt)
	out.Header.RejectedAt = cloneTime(d.Header.RejectedAt)
	out.Header.SentAt = cloneTime(d.Header.SentAt)
	out.Header.ReceivedAt = cloneTime(d.Header.ReceivedAt)
	out.Header.ReleasedAt = cloneTime(d.Header.ReleasedAt)
	out.Header.StartedAt = cloneTime(d.Header.StartedAt)
	out.Header.CompletedAt = cloneTime(d.Header.CompletedAt)
	out.Header.PostedAt = cloneTime(d.Header.PostedAt)
	out.Header.CancelledAt = cloneTime(d.Header.CancelledAt)
	if d.Header.Metadata != nil {
		out.Header.Metadata = make(map[string]any, len(d.Header.Metadata))
		for k, v := range d.Header.Metadata {
			out.Header.Metadata[k] = v
		}
	}
	out.Lines = make([]DocumentLine, len(d.Lines))
	for i, l := range d.Lines {
		out.Lines[i] = l
		out.Lines[i].ActualQty = cloneDecimal(l.ActualQty)
		out.Lines[i].UnitCost = cloneDecimal(l.UnitCost)
		if l.Variance != nil {
			v := *l.Variance
			v.VarianceValue = cloneDecimal(l.Variance.VarianceValue)
			out.Lines[i].Variance = &v
		}
	}
	return out
}

// Line busca una línea por ID.
func (d *Document) Line(id string) (*DocumentLine, bool) {
	for i := range d.Lines {
		if d.Lines[i].ID == id {
			return &d.Lines[i], true
		}
	}
	return nil, false
}

// UnrecordedLineIDs IDs de las líneas sin cantidad real, en orden.
func (d Document) UnrecordedLineIDs() []string {
	var ids []string
	for _, l := range d.Lines {
		if !l.Recorded() {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
