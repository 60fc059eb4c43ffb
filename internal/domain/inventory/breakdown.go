package inventory

// Quantity triple karton / tengah / pieces de WH01.
type Quantity struct {
	Cartons  int
	SubUnits int
	Pieces   int
}

// Breakdown descompone un total en pieces a karton/tengah/pieces (servicio de dominio).
//
//	Karton = floor(total / cartonFactor)
//	Tengah = floor(resto / subUnitFactor)
//	Pieces = resto - Tengah*subUnitFactor
//
// Si falta algún factor o no es positivo, o el total no es positivo, devuelve ceros:
// la fila se ingiere igual con cantidades en cero.
func Breakdown(total int, cartonFactor, subUnitFactor *int) Quantity {
	if cartonFactor == nil || subUnitFactor == nil || *cartonFactor <= 0 || *subUnitFactor <= 0 || total <= 0 {
		return Quantity{}
	}
	cf, sf := *cartonFactor, *subUnitFactor
	cartons := total / cf
	remainder := total - cartons*cf
	subUnits := remainder / sf
	return Quantity{
		Cartons:  cartons,
		SubUnits: subUnits,
		Pieces:   remainder - subUnits*sf,
	}
}
