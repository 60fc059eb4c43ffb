package entity

import "time"

// StockCarton es el registro WH01 de un producto. Karton, tengah y pieces son contadores
// independientes; la descomposición es una convención de negocio, no una unidad derivada.
type StockCarton struct {
	ProductID  string
	Cartons    int
	SubUnits   int
	Pieces     int
	ExpiryDate *time.Time
	ShelfID    *string
	IsActive   bool
}

// StockPieces es el registro WH02/WH03 de un producto: total escalar en pieces.
type StockPieces struct {
	Type        WarehouseType
	ProductID   string
	TotalPieces int
	IsActive    bool
}

// StockProduct es un producto activo en un ledger de pieces (lista de trabajo WH02/WH03).
type StockProduct struct {
	ProductID   string
	Code        string
	Name        string
	TotalPieces int
}
