package repository

// Repositories agrupa los puertos que un caso de uso ve dentro de una transacción.
// La infraestructura construye un bundle por transacción (ligado a pgx.Tx) o uno ligado al pool.
type Repositories struct {
	Products   ProductRepository
	Divisions  DivisionRepository
	Shelves    ShelfRepository
	StockWH01  StockCartonRepository
	StockPcs   StockPiecesRepository
	Users      UserRepository
	Batches    BatchRepository
	Assignment AssignmentRepository
	Details    DetailRepository
}
