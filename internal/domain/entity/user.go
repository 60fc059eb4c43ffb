package entity

// User es la vista mínima que el motor de opname necesita de una cuenta.
// El CRUD de usuarios y la autenticación viven en otro servicio.
type User struct {
	ID         string
	Name       string
	RoleID     int
	DivisionID *string // sin división no se le puede asignar opname
	IsActive   bool
}

// Actor es la identidad autenticada que ejecuta una operación.
type Actor struct {
	UserID  string
	RoleID  int
	Address string // IP de origen, para el log de actividad
}
