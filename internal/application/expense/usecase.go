package expense

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/expense"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// overdueBatch registros revisados por transacción en RefreshOverdue.
const overdueBatch = 200

// TxRunner ejecuta fn dentro de una transacción con el repositorio de registros de costo.
type TxRunner interface {
	RunCosts(ctx context.Context, fn func(costRepo repository.CostRecordRepository) error) error
}

// CostRecordUseCase casos de uso de registros de costo (compras y gastos por pagar).
type CostRecordUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewCostRecordUseCase construye el caso de uso.
func NewCostRecordUseCase(txRunner TxRunner, log *logger.Logger) *CostRecordUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CostRecordUseCase{txRunner: txRunner, log: log.Component("expense"), now: time.Now}
}

// WithClock reemplaza el reloj (tests y barridos programados).
func (uc *CostRecordUseCase) WithClock(now func() time.Time) *CostRecordUseCase {
	uc.now = now
	return uc
}

// Create registra un gasto manual. Un PaidAmount mayor al monto se recorta.
func (uc *CostRecordUseCase) Create(ctx context.Context, venueID string, in dto.CreateCostRecordRequest) (*dto.CostRecordResponse, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, domain.NewValidationError("description", "is required")
	}
	if in.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount", "must not be negative")
	}
	if in.PaidAmount.IsNegative() {
		return nil, domain.NewValidationError("paid_amount", "must not be negative")
	}

	now := uc.now()
	rec := &entity.CostRecord{
		ID:            uuid.New().String(),
		VenueID:       venueID,
		Description:   desc,
		Amount:        in.Amount,
		DueDate:       in.DueDate,
		CategoryID:    in.CategoryID,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec.PaidAmount = in.PaidAmount
	expense.Normalize(rec, now)
	if rec.PaidAmount.IsPositive() {
		rec.Payments = []entity.Payment{{Amount: rec.PaidAmount, Method: in.PaymentMethod, PaidAt: now}}
	}

	err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
		return costRepo.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("cost_record_id", rec.ID).Str("amount", rec.Amount.String()).Str("status", string(rec.Status)).Msg("registro de costo creado")
	resp := dto.NewCostRecordResponse(rec)
	return &resp, nil
}

// Get devuelve el registro con su estado recalculado al instante actual.
func (uc *CostRecordUseCase) Get(ctx context.Context, venueID, id string) (*dto.CostRecordResponse, error) {
	var rec *entity.CostRecord
	err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
		var err error
		rec, err = getOwned(ctx, costRepo.GetByID, venueID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	expense.Normalize(rec, uc.now())
	resp := dto.NewCostRecordResponse(rec)
	return &resp, nil
}

// Update asigna directamente descripción, monto, monto pagado, vencimiento o categoría.
// El monto de un registro generado por una compra lo define el movimiento de inventario.
func (uc *CostRecordUseCase) Update(ctx context.Context, venueID, id string, in dto.UpdateCostRecordRequest) (*dto.CostRecordResponse, error) {
	var rec *entity.CostRecord
	err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
		var err error
		rec, err = getOwned(ctx, costRepo.GetForUpdate, venueID, id)
		if err != nil {
			return err
		}
		if rec.Status == entity.CostStatusCancelled {
			return domain.ErrConflict
		}

		now := uc.now()
		stored := len(rec.Payments)
		if in.Description != nil {
			desc := strings.TrimSpace(*in.Description)
			if desc == "" {
				return domain.NewValidationError("description", "is required")
			}
			rec.Description = desc
		}
		if in.CategoryID != nil {
			rec.CategoryID = *in.CategoryID
		}
		if in.Amount != nil {
			if rec.SourceMovementID != "" {
				return domain.NewValidationError("amount", "is derived from the linked inventory movement")
			}
			if err := expense.SetAmount(rec, *in.Amount, now); err != nil {
				return err
			}
		}
		if in.PaidAmount != nil {
			if in.PaidAmount.IsNegative() {
				return domain.NewValidationError("paid_amount", "must not be negative")
			}
			expense.SetPaidAmount(rec, *in.PaidAmount, now)
		}
		switch {
		case in.ClearDueDate:
			expense.SetDueDate(rec, nil, now)
		case in.DueDate != nil:
			expense.SetDueDate(rec, in.DueDate, now)
		}
		rec.UpdatedAt = now
		expense.Normalize(rec, now)
		if err := AppendPayments(ctx, costRepo, rec, stored); err != nil {
			return err
		}
		return costRepo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewCostRecordResponse(rec)
	return &resp, nil
}

// AddPayment registra un abono. Pagos no positivos, mayores al saldo o sobre registros
// cancelados se rechazan con PaymentError.
func (uc *CostRecordUseCase) AddPayment(ctx context.Context, venueID, id string, amount decimal.Decimal, method string) (*dto.CostRecordResponse, error) {
	var rec *entity.CostRecord
	err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
		var err error
		rec, err = getOwned(ctx, costRepo.GetForUpdate, venueID, id)
		if err != nil {
			return err
		}
		if err := expense.AddPayment(rec, amount, strings.TrimSpace(method), uc.now()); err != nil {
			return err
		}
		if err := AppendPayments(ctx, costRepo, rec, len(rec.Payments)-1); err != nil {
			return err
		}
		return costRepo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("cost_record_id", rec.ID).Str("amount", amount.String()).Str("status", string(rec.Status)).Msg("pago registrado")
	resp := dto.NewCostRecordResponse(rec)
	return &resp, nil
}

// Cancel marca el registro como cancelado. Cancelar dos veces no es error.
func (uc *CostRecordUseCase) Cancel(ctx context.Context, venueID, id string) (*dto.CostRecordResponse, error) {
	var rec *entity.CostRecord
	err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
		var err error
		rec, err = getOwned(ctx, costRepo.GetForUpdate, venueID, id)
		if err != nil {
			return err
		}
		if rec.Status == entity.CostStatusCancelled {
			return nil
		}
		expense.Cancel(rec, uc.now())
		return costRepo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewCostRecordResponse(rec)
	return &resp, nil
}

// RefreshOverdue persiste el estado overdue de los registros vencidos sin pagos.
// Devuelve cuántos registros cambiaron.
func (uc *CostRecordUseCase) RefreshOverdue(ctx context.Context) (int, error) {
	now := uc.now()
	total := 0
	for {
		changed := 0
		err := uc.txRunner.RunCosts(ctx, func(costRepo repository.CostRecordRepository) error {
			candidates, err := costRepo.ListOverdueCandidates(ctx, now, overdueBatch)
			if err != nil {
				return err
			}
			for _, rec := range candidates {
				before := rec.Status
				expense.Normalize(rec, now)
				if rec.Status == before {
					continue
				}
				rec.UpdatedAt = now
				if err := costRepo.Update(ctx, rec); err != nil {
					return err
				}
				changed++
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		total += changed
		if changed < overdueBatch {
			break
		}
	}
	if total > 0 {
		uc.log.Info().Int("count", total).Msg("registros de costo marcados como vencidos")
	}
	return total, nil
}

func getOwned(
	ctx context.Context,
	get func(ctx context.Context, id string) (*entity.CostRecord, error),
	venueID, id string,
) (*entity.CostRecord, error) {
	rec, err := get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.VenueID != venueID {
		return nil, domain.ErrForbidden
	}
	return rec, nil
}

// AppendPayments persiste los abonos agregados en memoria a partir de la posición from.
func AppendPayments(ctx context.Context, costRepo repository.CostRecordRepository, rec *entity.CostRecord, from int) error {
	for _, p := range rec.Payments[from:] {
		if err := costRepo.AddPayment(ctx, rec.ID, p); err != nil {
			return err
		}
	}
	return nil
}
