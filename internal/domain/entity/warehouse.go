package entity

import (
	"fmt"
	"strings"
)

// WarehouseType identifica el tipo de gudang y, con él, la variante de ledger de stock.
//   - WH01 (barang baik): karton / tengah / pieces independientes, con rak y fecha de expiración.
//   - WH02 (barang BS) y WH03 (promo): total escalar en pieces.
type WarehouseType string

const (
	WarehouseWH01 WarehouseType = "WH01"
	WarehouseWH02 WarehouseType = "WH02"
	WarehouseWH03 WarehouseType = "WH03"
)

// WarehouseTypes lista los tipos válidos en orden estable.
var WarehouseTypes = []WarehouseType{WarehouseWH01, WarehouseWH02, WarehouseWH03}

// ParseWarehouseType acepta "WH01", "wh01", " Wh02 ", etc.
func ParseWarehouseType(s string) (WarehouseType, error) {
	t := WarehouseType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("tipo de gudang inválido: %q", s)
	}
	return t, nil
}

// Valid indica si el tipo pertenece a la variante cerrada.
func (t WarehouseType) Valid() bool {
	switch t {
	case WarehouseWH01, WarehouseWH02, WarehouseWH03:
		return true
	}
	return false
}

// IsCarton indica si el tipo usa el ledger karton/tengah/pieces.
func (t WarehouseType) IsCarton() bool { return t == WarehouseWH01 }

// Others devuelve los otros dos tipos (para los placeholders inactivos de la ingesta).
func (t WarehouseType) Others() []WarehouseType {
	out := make([]WarehouseType, 0, 2)
	for _, o := range WarehouseTypes {
		if o != t {
			out = append(out, o)
		}
	}
	return out
}
