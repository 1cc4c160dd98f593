package ledger

import (
	"context"
	"time"

	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// QueryUseCase lecturas del libro y de la vista materializada de stock.
type QueryUseCase struct {
	txRunner uow.TxRunner
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(txRunner uow.TxRunner) *QueryUseCase {
	return &QueryUseCase{txRunner: txRunner}
}

// GetLevel devuelve el nivel de una clave (cero si no tiene historia).
func (uc *QueryUseCase) GetLevel(ctx context.Context, productID, location string) (*entity.StockLevel, error) {
	if productID == "" || location == "" {
		return nil, domain.ErrInvalidInput
	}
	var level *entity.StockLevel
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		level, err = r.Levels.Get(productID, location)
		return err
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// ListLevelsByProduct devuelve los niveles del producto en todas las ubicaciones.
func (uc *QueryUseCase) ListLevelsByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var levels []*entity.StockLevel
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		levels, err = r.Levels.ListByProduct(productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// ListMovementsByLocation lista el libro de una ubicación en un rango de fechas.
func (uc *QueryUseCase) ListMovementsByLocation(ctx context.Context, location string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if location == "" {
		return nil, domain.ErrInvalidInput
	}
	var movements []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		movements, err = r.Movements.ListByLocation(location, from, to, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// ListMovementsByReference lista los movimientos originados por un documento.
func (uc *QueryUseCase) ListMovementsByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	if referenceType == "" || referenceID == "" {
		return nil, domain.ErrInvalidInput
	}
	var movements []*entity.StockMovement
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		movements, err = r.Movements.ListByReference(referenceType, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}
