// Package memstore implementa los puertos de persistencia en memoria, con transacciones
// que restauran el estado previo ante error. Se usa en tests y en ejecuciones locales sin BD.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// LogEntry entrada del log de actividad.
type LogEntry struct {
	ActorID       string
	Message       string
	SourceAddress string
}

type state struct {
	products      map[string]*entity.Product
	divisions     map[string]*entity.Division
	shelves       map[string]*entity.Shelf
	users         map[string]*entity.User
	wh01          map[string]*entity.StockCarton
	pieces        map[entity.WarehouseType]map[string]*entity.StockPieces
	batches       map[string]*entity.OpnameBatch
	assignments   map[string]*entity.OpnameAssignment
	cartonDetails map[string]*entity.CartonDetail
	piecesDetails map[entity.WarehouseType]map[string]*entity.PiecesDetail
}

func newState() state {
	return state{
		products:      map[string]*entity.Product{},
		divisions:     map[string]*entity.Division{},
		shelves:       map[string]*entity.Shelf{},
		users:         map[string]*entity.User{},
		wh01:          map[string]*entity.StockCarton{},
		pieces:        map[entity.WarehouseType]map[string]*entity.StockPieces{entity.WarehouseWH02: {}, entity.WarehouseWH03: {}},
		batches:       map[string]*entity.OpnameBatch{},
		assignments:   map[string]*entity.OpnameAssignment{},
		cartonDetails: map[string]*entity.CartonDetail{},
		piecesDetails: map[entity.WarehouseType]map[string]*entity.PiecesDetail{entity.WarehouseWH02: {}, entity.WarehouseWH03: {}},
	}
}

// clone copia los mapas y los structs. Los punteros internos (*int, *time.Time, *string) se
// comparten: el store nunca modifica el valor apuntado, solo reemplaza el puntero.
func (s state) clone() state {
	c := newState()
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.divisions {
		cp := *v
		c.divisions[k] = &cp
	}
	for k, v := range s.shelves {
		cp := *v
		c.shelves[k] = &cp
	}
	for k, v := range s.users {
		cp := *v
		c.users[k] = &cp
	}
	for k, v := range s.wh01 {
		cp := *v
		c.wh01[k] = &cp
	}
	for t, m := range s.pieces {
		for k, v := range m {
			cp := *v
			c.pieces[t][k] = &cp
		}
	}
	for k, v := range s.batches {
		cp := *v
		c.batches[k] = &cp
	}
	for k, v := range s.assignments {
		cp := *v
		c.assignments[k] = &cp
	}
	for k, v := range s.cartonDetails {
		cp := *v
		c.cartonDetails[k] = &cp
	}
	for t, m := range s.piecesDetails {
		for k, v := range m {
			cp := *v
			c.piecesDetails[t][k] = &cp
		}
	}
	return c
}

// Store datos en memoria compartidos por todos los repositorios.
type Store struct {
	txMu sync.Mutex // serializa transacciones
	mu   sync.Mutex // protege data, failures y logs
	data state

	failures map[string][]error
	logs     []LogEntry
	trace    []string
	tracing  bool
}

// New crea un store vacío.
func New() *Store {
	return &Store{data: newState(), failures: map[string][]error{}}
}

// FailNext hace que las próximas llamadas a op ("Assignment.GetForUpdate", "StockPcs.SetTotal", ...)
// devuelvan los errores dados, uno por llamada.
func (s *Store) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// Trace empieza a registrar, en orden, las operaciones que pasan por el punto de
// inyección de fallos (las mismas claves que acepta FailNext).
func (s *Store) Trace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = true
	s.trace = nil
}

// Ops devuelve las operaciones registradas desde Trace.
func (s *Store) Ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.trace...)
}

// fail consume el siguiente error programado para op. Requiere s.mu tomado.
func (s *Store) fail(op string) error {
	q := s.failures[op]
	if len(q) == 0 {
		return nil
	}
	s.failures[op] = q[1:]
	return q[0]
}

// Repositories bundle sin transacción.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Products:   &productRepo{s},
		Divisions:  &divisionRepo{s},
		Shelves:    &shelfRepo{s},
		StockWH01:  &stockCartonRepo{s},
		StockPcs:   &stockPiecesRepo{s},
		Users:      &userRepo{s},
		Batches:    &batchRepo{s},
		Assignment: &assignmentRepo{s},
		Details:    &detailRepo{s},
	}
}

// TxRunner transacciones sobre el store: copia del estado al empezar, restaurada si fn falla.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn; si devuelve error el estado vuelve a como estaba al empezar.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	saved := r.s.data.clone()
	r.s.mu.Unlock()

	if err := fn(r.s.Repositories()); err != nil {
		r.s.mu.Lock()
		r.s.data = saved
		r.s.mu.Unlock()
		return err
	}
	return nil
}

// Log implementa activity.Sink.
func (s *Store) Log(_ context.Context, actorID, message, sourceAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Activity.Log"); err != nil {
		return err
	}
	s.logs = append(s.logs, LogEntry{ActorID: actorID, Message: message, SourceAddress: sourceAddress})
	return nil
}

// Logs copia del log de actividad.
func (s *Store) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.logs...)
}

// Seed carga master data y stock directamente (tests y arranque local).
type Seed struct {
	Divisions []entity.Division
	Shelves   []entity.Shelf
	Users     []entity.User
	Products  []entity.Product
	StockWH01 []entity.StockCarton
	StockPcs  []entity.StockPieces
}

// Load agrega el seed al store.
func (s *Store) Load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range seed.Divisions {
		s.data.divisions[d.ID] = &d
	}
	for _, sh := range seed.Shelves {
		s.data.shelves[sh.ID] = &sh
	}
	for _, u := range seed.Users {
		s.data.users[u.ID] = &u
	}
	for _, p := range seed.Products {
		s.data.products[p.ID] = &p
	}
	for _, st := range seed.StockWH01 {
		s.data.wh01[st.ProductID] = &st
	}
	for _, st := range seed.StockPcs {
		s.data.pieces[st.Type][st.ProductID] = &st
	}
}

// CartonStock lectura directa del ledger WH01 (tests).
func (s *Store) CartonStock(productID string) (entity.StockCarton, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.wh01[productID]
	if !ok {
		return entity.StockCarton{}, false
	}
	return *st, true
}

// PiecesStock lectura directa del ledger WH02/WH03 (tests).
func (s *Store) PiecesStock(t entity.WarehouseType, productID string) (entity.StockPieces, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.pieces[t][productID]
	if !ok {
		return entity.StockPieces{}, false
	}
	return *st, true
}

// Counts tamaño de las tablas de opname (tests de borrado y rollback).
func (s *Store) Counts() (batches, assignments, cartonDetails, piecesDetails int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.data.piecesDetails {
		piecesDetails += len(m)
	}
	return len(s.data.batches), len(s.data.assignments), len(s.data.cartonDetails), piecesDetails
}

func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
