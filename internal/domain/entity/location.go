package entity

import "time"

// Location representa una bodega o sucursal donde se almacena inventario (multi-ubicación).
// Se identifica por un código corto estable (ej. "JHB", "CPT") usado como clave de stock.
type Location struct {
	Code      string // clave usada en StockLevel y StockMovement
	CompanyID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
