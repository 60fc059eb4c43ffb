package entity

import (
	"github.com/shopspring/decimal"
)

// Product representa un producto identificado por su código (pcode).
// Los factores de conversión pueden faltar; en ese caso los totales en pieces no se calculan.
type Product struct {
	ID            string
	Code          string // pcode, único
	Name          string
	Barcode       *string
	DivisionID    string
	SubUnitFactor *int             // pieces por tengah (konversi tengah)
	CartonFactor  *int             // pieces por karton (konversi kecil)
	UnitPrice     *decimal.Decimal // hje por karton
}

// TotalPieces convierte un triple karton/tengah/pieces a pieces.
// ok es false si falta algún factor de conversión.
func (p *Product) TotalPieces(cartons, subUnits, pieces int) (total int, ok bool) {
	if p == nil || p.CartonFactor == nil || p.SubUnitFactor == nil {
		return 0, false
	}
	return cartons*(*p.CartonFactor) + subUnits*(*p.SubUnitFactor) + pieces, true
}
