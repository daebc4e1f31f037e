package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/internal/domain/entity"
	"github.com/jhoicas/Cafeteria-api/internal/domain/expense"
	"github.com/jhoicas/Cafeteria-api/internal/domain/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// LedgerUseCase registra, edita y elimina movimientos de stock. Cada mutación toma el
// bloqueo del ítem, carga el ledger completo dentro de una transacción (SELECT FOR UPDATE),
// lo reproduce en memoria y persiste el resultado; si la reproducción falla se hace Rollback.
type LedgerUseCase struct {
	txRunner TxRunner
	locker   ItemLocker
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, locker ItemLocker, log *logger.Logger) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner: txRunner,
		locker:   locker,
		log:      log.Component("ledger"),
		now:      time.Now,
	}
}

// PurchaseInput datos del registro de costo que genera una entrada de compra.
type PurchaseInput struct {
	Description   string
	CategoryID    string
	DueDate       *time.Time
	PaidAmount    decimal.Decimal
	PaymentMethod string
}

// RecordMovementInput entrada para registrar un movimiento.
// UnitPrice es opcional: en salidas y ajustes sin precio se costea por FIFO.
// Timestamp nil = ahora.
type RecordMovementInput struct {
	VenueID   string
	UserID    string
	ItemID    string
	Kind      entity.MovementKind
	Quantity  decimal.Decimal
	Reason    string
	Reference string
	UnitPrice *decimal.Decimal
	Timestamp *time.Time
	Purchase  *PurchaseInput
}

// EditMovementInput entrada para editar un movimiento existente.
type EditMovementInput struct {
	VenueID    string
	ItemID     string
	MovementID string
	Patch      entity.MovementPatch
}

// MovementResult resultado de registrar o editar un movimiento.
type MovementResult struct {
	Item       entity.InventoryItem
	Movement   entity.StockMovement
	CostRecord *entity.CostRecord // registro de compra creado o actualizado, si aplica
}

// RecordMovement agrega un movimiento al ledger del ítem.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementResult, error) {
	if input.ItemID == "" {
		return nil, domain.NewValidationError("item_id", "is required")
	}
	if input.Purchase != nil && input.Kind != entity.MovementIn {
		return nil, domain.NewValidationError("purchase", "only inbound movements can be purchases")
	}

	release, err := uc.locker.Lock(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		costRepo repository.CostRecordRepository,
	) error {
		var err error
		result, err = uc.recordInTx(ctx, itemRepo, movRepo, costRepo, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("item_id", result.Item.ID).
		Str("movement_id", result.Movement.ID).
		Str("kind", string(result.Movement.Kind)).
		Str("stock", result.Item.CurrentStock.String()).
		Msg("movimiento registrado")
	if result.CostRecord != nil {
		uc.log.Info().
			Str("cost_record_id", result.CostRecord.ID).
			Str("movement_id", result.Movement.ID).
			Str("amount", result.CostRecord.Amount.String()).
			Msg("registro de costo creado por compra")
	}
	return result, nil
}

// recordInTx registra el movimiento con repositorios ya atados a una transacción.
// El llamador debe tener el bloqueo del ítem.
func (uc *LedgerUseCase) recordInTx(
	ctx context.Context,
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
	costRepo repository.CostRecordRepository,
	input RecordMovementInput,
) (*MovementResult, error) {
	ledger, err := loadLedger(ctx, itemRepo, movRepo, input.VenueID, input.ItemID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	at := now
	if input.Timestamp != nil {
		at = *input.Timestamp
	}
	mov := entity.StockMovement{
		ID:        uuid.New().String(),
		ItemID:    input.ItemID,
		Kind:      input.Kind,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		Reason:    entity.ParseReason(input.Reason),
		Reference: strings.TrimSpace(input.Reference),
		Timestamp: at,
		CreatedAt: now,
		CreatedBy: input.UserID,
	}

	mut, err := ledger.Append(mov)
	if err != nil {
		return nil, err
	}
	if input.Purchase != nil && mut.Movement.TotalCost == nil {
		return nil, domain.NewValidationError("unit_price", "a purchase requires a unit price")
	}

	if err := movRepo.Create(ctx, &mut.Movement); err != nil {
		return nil, err
	}
	if err := persistMutation(ctx, itemRepo, movRepo, mut); err != nil {
		return nil, err
	}

	result := &MovementResult{Item: mut.Item, Movement: mut.Movement}
	if input.Purchase != nil {
		rec := newPurchaseRecord(input.VenueID, mut.Item, mut.Movement, *input.Purchase, now)
		if err := costRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		result.CostRecord = rec
	}
	return result, nil
}

// EditMovement modifica un movimiento y recalcula todo el ledger. Si el movimiento originó
// un registro de costo, su monto se actualiza.
func (uc *LedgerUseCase) EditMovement(ctx context.Context, input EditMovementInput) (*MovementResult, error) {
	release, err := uc.locker.Lock(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		costRepo repository.CostRecordRepository,
	) error {
		ledger, err := loadLedger(ctx, itemRepo, movRepo, input.VenueID, input.ItemID)
		if err != nil {
			return err
		}
		mut, err := ledger.Update(input.MovementID, input.Patch)
		if err != nil {
			return err
		}
		if err := movRepo.Update(ctx, &mut.Movement); err != nil {
			return err
		}
		if err := persistMutation(ctx, itemRepo, movRepo, mut); err != nil {
			return err
		}

		result = &MovementResult{Item: mut.Item, Movement: mut.Movement}
		rec, err := costRepo.GetBySourceMovement(ctx, input.MovementID)
		if err != nil {
			return err
		}
		if rec != nil && rec.Status != entity.CostStatusCancelled {
			amount := decimal.Zero
			if mut.Movement.TotalCost != nil {
				amount = *mut.Movement.TotalCost
			}
			stored := len(rec.Payments)
			if err := expense.SetAmount(rec, amount, uc.now()); err != nil {
				return err
			}
			for _, p := range rec.Payments[stored:] {
				if err := costRepo.AddPayment(ctx, rec.ID, p); err != nil {
					return err
				}
			}
			if err := costRepo.Update(ctx, rec); err != nil {
				return err
			}
			result.CostRecord = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("item_id", result.Item.ID).
		Str("movement_id", result.Movement.ID).
		Str("stock", result.Item.CurrentStock.String()).
		Msg("movimiento editado")
	return result, nil
}

// DeleteMovement elimina un movimiento y recalcula todo el ledger. Un registro de costo
// originado por el movimiento queda cancelado.
func (uc *LedgerUseCase) DeleteMovement(ctx context.Context, venueID, itemID, movementID string) (*entity.InventoryItem, error) {
	release, err := uc.locker.Lock(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var item entity.InventoryItem
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		costRepo repository.CostRecordRepository,
	) error {
		ledger, err := loadLedger(ctx, itemRepo, movRepo, venueID, itemID)
		if err != nil {
			return err
		}
		mut, err := ledger.Remove(movementID)
		if err != nil {
			return err
		}
		if err := movRepo.Delete(ctx, movementID); err != nil {
			return err
		}
		if err := persistMutation(ctx, itemRepo, movRepo, mut); err != nil {
			return err
		}
		item = mut.Item

		rec, err := costRepo.GetBySourceMovement(ctx, movementID)
		if err != nil {
			return err
		}
		if rec != nil && rec.Status != entity.CostStatusCancelled {
			expense.Cancel(rec, uc.now())
			return costRepo.Update(ctx, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("item_id", itemID).
		Str("movement_id", movementID).
		Str("stock", item.CurrentStock.String()).
		Msg("movimiento eliminado")
	return &item, nil
}

// PriceOutboundQuantity costea por FIFO una salida hipotética de quantity en at (nil = ahora).
// No modifica el ledger.
func (uc *LedgerUseCase) PriceOutboundQuantity(ctx context.Context, venueID, itemID string, quantity decimal.Decimal, at *time.Time) (inventory.Allocation, error) {
	when := uc.now()
	if at != nil {
		when = *at
	}

	var alloc inventory.Allocation
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.InventoryItemRepository,
		movRepo repository.StockMovementRepository,
		_ repository.CostRecordRepository,
	) error {
		ledger, err := loadLedger(ctx, itemRepo, movRepo, venueID, itemID)
		if err != nil {
			return err
		}
		alloc, err = ledger.PriceOutbound(quantity, when)
		return err
	})
	return alloc, err
}

// loadLedger bloquea el ítem y reconstruye su ledger.
func loadLedger(
	ctx context.Context,
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
	venueID, itemID string,
) (*inventory.Ledger, error) {
	item, err := itemRepo.GetForUpdate(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active {
		return nil, domain.ErrNotFound
	}
	if item.VenueID != venueID {
		return nil, domain.ErrForbidden
	}
	movements, err := movRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return inventory.NewLedger(*item, movements), nil
}

// persistMutation guarda los campos derivados del ítem y de los demás movimientos afectados.
func persistMutation(
	ctx context.Context,
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
	mut *inventory.Mutation,
) error {
	for i := range mut.Changed {
		if err := movRepo.Update(ctx, &mut.Changed[i]); err != nil {
			return err
		}
	}
	return itemRepo.UpdateDerived(ctx, &mut.Item)
}

func newPurchaseRecord(venueID string, item entity.InventoryItem, mov entity.StockMovement, p PurchaseInput, now time.Time) *entity.CostRecord {
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = "Compra: " + item.Name
	}
	rec := &entity.CostRecord{
		ID:               uuid.New().String(),
		VenueID:          venueID,
		Description:      desc,
		Amount:           *mov.TotalCost,
		PaidAmount:       p.PaidAmount,
		DueDate:          p.DueDate,
		CategoryID:       p.CategoryID,
		SourceItemID:     item.ID,
		SourceMovementID: mov.ID,
		PaymentMethod:    p.PaymentMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.PaidAmount.IsPositive() {
		rec.Payments = []entity.Payment{{Amount: decimal.Min(p.PaidAmount, rec.Amount), Method: p.PaymentMethod, PaidAt: now}}
	}
	expense.Normalize(rec, now)
	return rec
}
