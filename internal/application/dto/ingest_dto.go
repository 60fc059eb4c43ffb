package dto

// UploadResult resumen de POST /api/products/upload/:type.
// Errors se limita a los primeros errores por fila.
type UploadResult struct {
	WarehouseType  string   `json:"warehouse_type"`
	ProcessedCount int      `json:"processed_count"`
	SkippedCount   int      `json:"skipped_count"`
	Deactivated    int64    `json:"deactivated"`
	Errors         []string `json:"errors"`
}
