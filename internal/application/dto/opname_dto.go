package dto

import "time"

// CreateBatchRequest body para POST /api/opname/batch.
type CreateBatchRequest struct {
	Name          string   `json:"name" validate:"required,max=150"`
	WarehouseType string   `json:"warehouse_type" validate:"required,oneof=WH01 WH02 WH03 wh01 wh02 wh03"`
	UserIDs       []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// DecideRequest body para POST /api/opname/approve/:assignment_id.
type DecideRequest struct {
	Status string `json:"status" validate:"required"` // Approved | Rejected, sin distinguir mayúsculas
}

// UpdateCartonDetailRequest body para PUT /api/opname/details/wh01/:detail_id.
// Los campos ausentes se dejan como estaban; al menos uno físico es obligatorio.
type UpdateCartonDetailRequest struct {
	PhysicalCartons  *int    `json:"physical_cartons" validate:"omitempty,min=0"`
	PhysicalSubUnits *int    `json:"physical_sub_units" validate:"omitempty,min=0"`
	PhysicalPieces   *int    `json:"physical_pieces" validate:"omitempty,min=0"`
	ExpiryDate       *string `json:"expiry_date,omitempty"` // YYYY-MM-DD
	ShelfID          *string `json:"shelf_id,omitempty"`
}

// SaveContainerRowRequest body para POST /api/opname/details/:type (WH02/WH03).
type SaveContainerRowRequest struct {
	AssignmentID   string `json:"assignment_id" validate:"required"`
	ProductID      string `json:"product_id" validate:"required"`
	ContainerLabel string `json:"container_label" validate:"required,max=50"`
	PhysicalPieces *int   `json:"physical_pieces" validate:"required,min=0"`
}

// BatchResponse cabecera de un batch.
type BatchResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	WarehouseType   string     `json:"warehouse_type"`
	CreatedBy       string     `json:"created_by"`
	CreatorName     string     `json:"creator_name,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	AssignmentCount int        `json:"assignment_count"`
}

// BatchCreatedResponse respuesta de la creación de un batch.
type BatchCreatedResponse struct {
	Batch        BatchResponse `json:"batch"`
	Assignments  int           `json:"assignments"`
	SnapshotRows int64         `json:"snapshot_rows"`
}

// AssignmentResponse asignación con datos de lectura.
type AssignmentResponse struct {
	ID            string     `json:"id"`
	BatchID       string     `json:"batch_id"`
	BatchName     string     `json:"batch_name,omitempty"`
	WarehouseType string     `json:"warehouse_type,omitempty"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	DivisionID    string     `json:"division_id"`
	DivisionCode  string     `json:"division_code,omitempty"`
	DivisionName  string     `json:"division_name,omitempty"`
	Status        string     `json:"status"`
	AssignedAt    time.Time  `json:"assigned_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
}

// BatchDetailResponse batch con sus asignaciones (vista admin).
type BatchDetailResponse struct {
	Batch       BatchResponse        `json:"batch"`
	Assignments []AssignmentResponse `json:"assignments"`
}

// CartonDetailResponse línea WH01 con la varianza calculada al leer.
type CartonDetailResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	ProductCode      string     `json:"product_code"`
	ProductName      string     `json:"product_name"`
	SystemCartons    int        `json:"system_cartons"`
	SystemSubUnits   int        `json:"system_sub_units"`
	SystemPieces     int        `json:"system_pieces"`
	PhysicalCartons  *int       `json:"physical_cartons"`
	PhysicalSubUnits *int       `json:"physical_sub_units"`
	PhysicalPieces   *int       `json:"physical_pieces"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	ShelfID          *string    `json:"shelf_id,omitempty"`
	ShelfLabel       string     `json:"shelf_label,omitempty"`
	Variance         string     `json:"variance"`
	CountedAt        *time.Time `json:"counted_at,omitempty"`
}

// PiecesDetailResponse fila de koli WH02/WH03.
type PiecesDetailResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductCode    string    `json:"product_code,omitempty"`
	ProductName    string    `json:"product_name,omitempty"`
	ContainerLabel string    `json:"container_label"`
	PhysicalPieces int       `json:"physical_pieces"`
	CountedAt      time.Time `json:"counted_at"`
}

// ProductCountResponse total contado por producto WH02/WH03 frente al ledger.
type ProductCountResponse struct {
	ProductID     string `json:"product_id"`
	ProductCode   string `json:"product_code"`
	ProductName   string `json:"product_name"`
	SystemPieces  int    `json:"system_pieces"`
	CountedPieces int    `json:"counted_pieces"`
	Rows          int    `json:"rows"`
	Variance      string `json:"variance"`
}

// AssignmentDetailResponse la asignación con el detalle de su variante de gudang.
type AssignmentDetailResponse struct {
	Assignment    AssignmentResponse     `json:"assignment"`
	CartonRows    []CartonDetailResponse `json:"carton_rows,omitempty"`
	PiecesRows    []PiecesDetailResponse `json:"pieces_rows,omitempty"`
	ProductTotals []ProductCountResponse `json:"product_totals,omitempty"`
}

// BatchReportResponse forma estable de lectura para renderizadores externos (Excel/PDF).
type BatchReportResponse struct {
	BatchInfo           BatchResponse                       `json:"batch_info"`
	Assignments         []AssignmentResponse                `json:"assignments"`
	DetailsByAssignment map[string]AssignmentDetailResponse `json:"details_by_assignment"`
}
