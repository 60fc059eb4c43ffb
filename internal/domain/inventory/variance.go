package inventory

import "github.com/ciptastok/opname-api/internal/domain/entity"

// CartonVariance compara el snapshot WH01 contra el conteo físico.
// Sin calcular si algún componente físico sigue vacío; Selisih si cualquiera difiere.
func CartonVariance(d *entity.CartonDetail) entity.VarianceStatus {
	if d.PhysicalCartons == nil || d.PhysicalSubUnits == nil || d.PhysicalPieces == nil {
		return entity.VarianceUnset
	}
	if *d.PhysicalCartons != d.SystemCartons ||
		*d.PhysicalSubUnits != d.SystemSubUnits ||
		*d.PhysicalPieces != d.SystemPieces {
		return entity.VarianceDiffers
	}
	return entity.VarianceMatch
}

// PiecesVariance compara el total contado de un producto WH02/WH03 con el ledger.
// rows=0 significa "no recontado dentro de esta asignación", no cero stock.
func PiecesVariance(system, counted, rows int) entity.VarianceStatus {
	if rows == 0 {
		return entity.VarianceUnset
	}
	if system != counted {
		return entity.VarianceDiffers
	}
	return entity.VarianceMatch
}
