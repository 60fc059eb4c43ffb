package entity

import "time"

// BatchStatus estado global de un batch de opname.
type BatchStatus string

const (
	BatchDraft      BatchStatus = "Draft"
	BatchInProgress BatchStatus = "In Progress"
	BatchCompleted  BatchStatus = "Completed"
)

// AssignmentStatus estado de la tarea de un usuario dentro de un batch.
// Solo avanza: Pending → In Progress → Submitted → Approved | Rejected.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "Pending"
	AssignmentInProgress AssignmentStatus = "In Progress"
	AssignmentSubmitted  AssignmentStatus = "Submitted"
	AssignmentApproved   AssignmentStatus = "Approved"
	AssignmentRejected   AssignmentStatus = "Rejected"
)

// Terminal indica si la asignación ya recibió decisión del admin.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentApproved || s == AssignmentRejected
}

// Deletable indica si el admin todavía puede borrar la asignación.
func (s AssignmentStatus) Deletable() bool {
	return s == AssignmentPending || s == AssignmentInProgress
}

// OpnameBatch una campaña de conteo sobre un tipo de gudang.
type OpnameBatch struct {
	ID            string
	Name          string
	WarehouseType WarehouseType
	CreatedBy     string
	CreatorName   string
	Status        BatchStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// OpnameAssignment la tarea de un usuario (una por batch y usuario).
type OpnameAssignment struct {
	ID          string
	BatchID     string
	UserID      string
	DivisionID  string
	Status      AssignmentStatus
	AssignedAt  time.Time
	StartedAt   *time.Time
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *string
}

// AssignmentSummary asignación con datos de lectura (usuario, división, batch).
type AssignmentSummary struct {
	OpnameAssignment
	UserName      string
	DivisionCode  string
	DivisionName  string
	BatchName     string
	WarehouseType WarehouseType
}

// BatchProgress conteo de asignaciones de un batch para el chequeo de completitud.
type BatchProgress struct {
	Total    int
	Terminal int
}

// Complete indica que todas las asignaciones (al menos una) tienen decisión.
func (p BatchProgress) Complete() bool {
	return p.Total > 0 && p.Total == p.Terminal
}
