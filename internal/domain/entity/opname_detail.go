package entity

import "time"

// VarianceStatus resultado derivado (solo lectura) de comparar sistema contra físico.
type VarianceStatus string

const (
	VarianceUnset   VarianceStatus = ""        // aún no contado
	VarianceMatch   VarianceStatus = "Sesuai"  // coincide
	VarianceDiffers VarianceStatus = "Selisih" // difiere
)

// CartonDetail línea WH01: snapshot del sistema al crear el batch + conteo físico.
// Los campos físicos son nil hasta que el usuario los llena.
type CartonDetail struct {
	ID           string
	AssignmentID string
	ProductID    string
	ProductCode  string
	ProductName  string

	SystemCartons  int
	SystemSubUnits int
	SystemPieces   int
	SystemExpiry   *time.Time
	SystemShelfID  *string

	PhysicalCartons  *int
	PhysicalSubUnits *int
	PhysicalPieces   *int
	// ExpiryDate y ShelfID arrancan con el valor del snapshot y el usuario puede corregirlos.
	ExpiryDate *time.Time
	ShelfID    *string
	ShelfLabel string
	CountedAt  *time.Time
}

// CartonCount corrección enviada por el usuario para una línea WH01.
type CartonCount struct {
	PhysicalCartons  *int
	PhysicalSubUnits *int
	PhysicalPieces   *int
	ExpiryDate       *time.Time
	ShelfID          *string
}

// PiecesDetail línea WH02/WH03: conteo libre por koli (contenedor).
// (AssignmentID, ProductID, ContainerLabel) es única; reenviar la misma koli sobrescribe.
type PiecesDetail struct {
	ID             string
	Type           WarehouseType
	AssignmentID   string
	ProductID      string
	ProductCode    string
	ProductName    string
	ContainerLabel string // nomor_koli
	PhysicalPieces int
	CountedAt      time.Time
}
