package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
	"github.com/jhoicas/Inventario-erp/pkg/config"
)

// workflowPolicies combina las políticas por defecto del orquestador con lo configurado por env.
func workflowPolicies(c config.WorkflowConfig) (map[entity.DocumentKind]workflow.Policy, error) {
	qty := reconciliation.Thresholds{
		Warning:  orDefault(c.VarianceWarningPct, reconciliation.DefaultQuantityThresholds.Warning),
		Critical: orDefault(c.VarianceCriticalPct, reconciliation.DefaultQuantityThresholds.Critical),
	}
	if err := qty.Validate(); err != nil {
		return nil, fmt.Errorf("umbrales de varianza: %w", err)
	}
	temp := reconciliation.Thresholds{
		Warning:  orDefault(c.TemperatureWarningDeg, reconciliation.DefaultTemperatureThresholds.Warning),
		Critical: orDefault(c.TemperatureCritDeg, reconciliation.DefaultTemperatureThresholds.Critical),
	}
	if err := temp.Validate(); err != nil {
		return nil, fmt.Errorf("umbrales de temperatura: %w", err)
	}

	out := workflow.DefaultPolicies()
	for kind, p := range out {
		p.Thresholds = qty
		p.MeasurementThresholds = temp
		kp := c.Kinds[string(kind)]
		if kp.AutoComplete != nil {
			p.AutoComplete = *kp.AutoComplete
		}
		if kp.AllowPartial != nil {
			p.AllowPartial = *kp.AllowPartial
		}
		out[kind] = p
	}
	return out, nil
}

func orDefault(v decimal.NullDecimal, def decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return def
}
