package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository     = (*productRepo)(nil)
	_ repository.DivisionRepository    = (*divisionRepo)(nil)
	_ repository.ShelfRepository       = (*shelfRepo)(nil)
	_ repository.StockCartonRepository = (*stockCartonRepo)(nil)
	_ repository.StockPiecesRepository = (*stockPiecesRepo)(nil)
	_ repository.UserRepository        = (*userRepo)(nil)
	_ repository.BatchRepository       = (*batchRepo)(nil)
	_ repository.AssignmentRepository  = (*assignmentRepo)(nil)
	_ repository.DetailRepository      = (*detailRepo)(nil)
)

// lock toma el mutex de datos y devuelve el error programado para op, si hay.
func (s *Store) lock(op string) error {
	s.mu.Lock()
	if s.tracing {
		s.trace = append(s.trace, op)
	}
	if err := s.fail(op); err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

// ---- productos y master data ----

type productRepo struct{ s *Store }

func (r *productRepo) UpsertByCode(_ context.Context, p *entity.Product) (string, error) {
	if err := r.s.lock("Products.UpsertByCode"); err != nil {
		return "", err
	}
	defer r.s.mu.Unlock()
	for _, cur := range r.s.data.products {
		if cur.Code == p.Code {
			cp := *p
			cp.ID = cur.ID
			if cp.UnitPrice == nil {
				cp.UnitPrice = cur.UnitPrice
			}
			r.s.data.products[cur.ID] = &cp
			return cur.ID, nil
		}
	}
	cp := *p
	cp.ID = uuid.New().String()
	r.s.data.products[cp.ID] = &cp
	return cp.ID, nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type divisionRepo struct{ s *Store }

func (r *divisionRepo) List(_ context.Context) ([]*entity.Division, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Division, 0, len(r.s.data.divisions))
	for _, d := range r.s.data.divisions {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *divisionRepo) GetByID(_ context.Context, id string) (*entity.Division, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.data.divisions[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

type shelfRepo struct{ s *Store }

func (r *shelfRepo) List(_ context.Context) ([]*entity.Shelf, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Shelf, 0, len(r.s.data.shelves))
	for _, sh := range r.s.data.shelves {
		cp := *sh
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (r *shelfRepo) GetByID(_ context.Context, id string) (*entity.Shelf, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.data.shelves[id]
	if !ok {
		return nil, nil
	}
	cp := *sh
	return &cp, nil
}

func (r *shelfRepo) EnsureByLabel(_ context.Context, label string) (string, error) {
	if err := r.s.lock("Shelves.EnsureByLabel"); err != nil {
		return "", err
	}
	defer r.s.mu.Unlock()
	for _, sh := range r.s.data.shelves {
		if sameLabel(sh.Label, label) {
			return sh.ID, nil
		}
	}
	sh := &entity.Shelf{ID: uuid.New().String(), Label: label}
	r.s.data.shelves[sh.ID] = sh
	return sh.ID, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// ---- ledgers ----

type stockCartonRepo struct{ s *Store }

func (r *stockCartonRepo) Get(_ context.Context, productID string) (*entity.StockCarton, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.data.wh01[productID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *stockCartonRepo) DeactivateAll(_ context.Context) (int64, error) {
	if err := r.s.lock("StockWH01.DeactivateAll"); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	var n int64
	for _, st := range r.s.data.wh01 {
		if st.IsActive {
			st.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *stockCartonRepo) Upsert(_ context.Context, stock *entity.StockCarton) error {
	if err := r.s.lock("StockWH01.Upsert"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cp := *stock
	r.s.data.wh01[stock.ProductID] = &cp
	return nil
}

func (r *stockCartonRepo) EnsureInactive(_ context.Context, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if st, ok := r.s.data.wh01[productID]; ok {
		st.IsActive = false
		return nil
	}
	r.s.data.wh01[productID] = &entity.StockCarton{ProductID: productID}
	return nil
}

func (r *stockCartonRepo) ApplyCount(_ context.Context, stock *entity.StockCarton) error {
	if err := r.s.lock("StockWH01.ApplyCount"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	st, ok := r.s.data.wh01[stock.ProductID]
	if !ok {
		return nil
	}
	st.Cartons, st.SubUnits, st.Pieces = stock.Cartons, stock.SubUnits, stock.Pieces
	st.ExpiryDate, st.ShelfID = stock.ExpiryDate, stock.ShelfID
	return nil
}

type stockPiecesRepo struct{ s *Store }

func (r *stockPiecesRepo) table(t entity.WarehouseType) (map[string]*entity.StockPieces, error) {
	m, ok := r.s.data.pieces[t]
	if !ok {
		return nil, fmt.Errorf("ledger de pieces inexistente para %s", t)
	}
	return m, nil
}

func (r *stockPiecesRepo) Get(_ context.Context, t entity.WarehouseType, productID string) (*entity.StockPieces, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.table(t)
	if err != nil {
		return nil, err
	}
	st, ok := m[productID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *stockPiecesRepo) DeactivateAll(_ context.Context, t entity.WarehouseType) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.table(t)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, st := range m {
		if st.IsActive {
			st.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *stockPiecesRepo) Upsert(_ context.Context, stock *entity.StockPieces) error {
	if err := r.s.lock("StockPcs.Upsert"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, err := r.table(stock.Type)
	if err != nil {
		return err
	}
	cp := *stock
	m[stock.ProductID] = &cp
	return nil
}

func (r *stockPiecesRepo) EnsureInactive(_ context.Context, t entity.WarehouseType, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.table(t)
	if err != nil {
		return err
	}
	if st, ok := m[productID]; ok {
		st.IsActive = false
		return nil
	}
	m[productID] = &entity.StockPieces{Type: t, ProductID: productID}
	return nil
}

func (r *stockPiecesRepo) SetTotal(_ context.Context, t entity.WarehouseType, productID string, total int) error {
	if err := r.s.lock("StockPcs.SetTotal"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, err := r.table(t)
	if err != nil {
		return err
	}
	if st, ok := m[productID]; ok {
		st.TotalPieces = total
	}
	return nil
}

func (r *stockPiecesRepo) ListActiveProducts(_ context.Context, t entity.WarehouseType, divisionID string) ([]*entity.StockProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.table(t)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.StockProduct, 0)
	for _, st := range m {
		p, ok := r.s.data.products[st.ProductID]
		if !st.IsActive || !ok || p.DivisionID != divisionID {
			continue
		}
		out = append(out, &entity.StockProduct{ProductID: p.ID, Code: p.Code, Name: p.Name, TotalPieces: st.TotalPieces})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- batches y asignaciones ----

type batchRepo struct{ s *Store }

func (r *batchRepo) Create(_ context.Context, b *entity.OpnameBatch) error {
	if err := r.s.lock("Batches.Create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cp := *b
	r.s.data.batches[b.ID] = &cp
	return nil
}

func (r *batchRepo) withCreator(b *entity.OpnameBatch) *entity.OpnameBatch {
	cp := *b
	if u, ok := r.s.data.users[b.CreatedBy]; ok {
		cp.CreatorName = u.Name
	}
	return &cp
}

func (r *batchRepo) GetByID(_ context.Context, id string) (*entity.OpnameBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.batches[id]
	if !ok {
		return nil, nil
	}
	return r.withCreator(b), nil
}

// GetForUpdate no bloquea nada extra: las transacciones del store ya son serializables.
func (r *batchRepo) GetForUpdate(_ context.Context, id string) (*entity.OpnameBatch, error) {
	if err := r.s.lock("Batches.GetForUpdate"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	b, ok := r.s.data.batches[id]
	if !ok {
		return nil, nil
	}
	return r.withCreator(b), nil
}

func (r *batchRepo) List(_ context.Context) ([]*entity.OpnameBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	withAssignments := make(map[string]bool)
	for _, a := range r.s.data.assignments {
		withAssignments[a.BatchID] = true
	}
	out := make([]*entity.OpnameBatch, 0)
	for _, b := range r.s.data.batches {
		if withAssignments[b.ID] {
			out = append(out, r.withCreator(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *batchRepo) UpdateStatus(_ context.Context, id string, status entity.BatchStatus, completedAt *time.Time) error {
	if err := r.s.lock("Batches.UpdateStatus"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	b, ok := r.s.data.batches[id]
	if !ok {
		return domain.NotFound("batch %s", id)
	}
	b.Status = status
	b.CompletedAt = nil
	if status == entity.BatchCompleted {
		b.CompletedAt = completedAt
	}
	return nil
}

type assignmentRepo struct{ s *Store }

func (r *assignmentRepo) Create(_ context.Context, a *entity.OpnameAssignment) error {
	if err := r.s.lock("Assignment.Create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, cur := range r.s.data.assignments {
		if cur.BatchID == a.BatchID && cur.UserID == a.UserID {
			return fmt.Errorf("%w: asignación (batch, usuario)", domain.ErrDuplicate)
		}
	}
	cp := *a
	r.s.data.assignments[a.ID] = &cp
	return nil
}

func (r *assignmentRepo) get(id string) (*entity.OpnameAssignment, error) {
	a, ok := r.s.data.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *assignmentRepo) GetByID(_ context.Context, id string) (*entity.OpnameAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *assignmentRepo) GetForUpdate(_ context.Context, id string) (*entity.OpnameAssignment, error) {
	if err := r.s.lock("Assignment.GetForUpdate"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return r.get(id)
}

func (r *assignmentRepo) summary(a *entity.OpnameAssignment) *entity.AssignmentSummary {
	s := &entity.AssignmentSummary{OpnameAssignment: *a}
	if u, ok := r.s.data.users[a.UserID]; ok {
		s.UserName = u.Name
	}
	if d, ok := r.s.data.divisions[a.DivisionID]; ok {
		s.DivisionCode, s.DivisionName = d.Code, d.Name
	}
	if b, ok := r.s.data.batches[a.BatchID]; ok {
		s.BatchName, s.WarehouseType = b.Name, b.WarehouseType
	}
	return s
}

func (r *assignmentRepo) GetSummary(_ context.Context, id string) (*entity.AssignmentSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.assignments[id]
	if !ok {
		return nil, nil
	}
	return r.summary(a), nil
}

func sortSummaries(out []*entity.AssignmentSummary) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
			return out[i].AssignedAt.Before(out[j].AssignedAt)
		}
		return out[i].UserName < out[j].UserName
	})
}

func (r *assignmentRepo) ListByBatch(_ context.Context, batchID string) ([]*entity.AssignmentSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.AssignmentSummary, 0)
	for _, a := range r.s.data.assignments {
		if a.BatchID == batchID {
			out = append(out, r.summary(a))
		}
	}
	sortSummaries(out)
	return out, nil
}

func (r *assignmentRepo) FindActiveForUser(_ context.Context, userID string) (*entity.OpnameAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *entity.OpnameAssignment
	for _, a := range r.s.data.assignments {
		if a.UserID != userID || (a.Status != entity.AssignmentPending && a.Status != entity.AssignmentInProgress) {
			continue
		}
		if found == nil || a.AssignedAt.Before(found.AssignedAt) {
			found = a
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r *assignmentRepo) ListActive(_ context.Context) ([]*entity.AssignmentSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.AssignmentSummary, 0)
	for _, a := range r.s.data.assignments {
		if b, ok := r.s.data.batches[a.BatchID]; ok && b.Status == entity.BatchInProgress {
			out = append(out, r.summary(a))
		}
	}
	sortSummaries(out)
	return out, nil
}

// transition aplica mut si la asignación está en from; false si no.
func (r *assignmentRepo) transition(op, id string, from entity.AssignmentStatus, mut func(a *entity.OpnameAssignment)) (bool, error) {
	if err := r.s.lock(op); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()
	a, ok := r.s.data.assignments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	mut(a)
	return true, nil
}

func (r *assignmentRepo) MarkStarted(_ context.Context, id string, at time.Time) (bool, error) {
	return r.transition("Assignment.MarkStarted", id, entity.AssignmentPending, func(a *entity.OpnameAssignment) {
		a.Status = entity.AssignmentInProgress
		if a.StartedAt == nil {
			a.StartedAt = &at
		}
	})
}

func (r *assignmentRepo) MarkSubmitted(_ context.Context, id string, at time.Time) (bool, error) {
	return r.transition("Assignment.MarkSubmitted", id, entity.AssignmentInProgress, func(a *entity.OpnameAssignment) {
		a.Status = entity.AssignmentSubmitted
		a.SubmittedAt = &at
	})
}

func (r *assignmentRepo) MarkDecided(_ context.Context, id string, status entity.AssignmentStatus, by string, at time.Time) (bool, error) {
	return r.transition("Assignment.MarkDecided", id, entity.AssignmentSubmitted, func(a *entity.OpnameAssignment) {
		a.Status = status
		a.ApprovedAt = &at
		a.ApprovedBy = &by
	})
}

func (r *assignmentRepo) Delete(_ context.Context, id string) error {
	if err := r.s.lock("Assignment.Delete"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	delete(r.s.data.assignments, id)
	return nil
}

func (r *assignmentRepo) Progress(_ context.Context, batchID string) (entity.BatchProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var p entity.BatchProgress
	for _, a := range r.s.data.assignments {
		if a.BatchID != batchID {
			continue
		}
		p.Total++
		if a.Status.Terminal() {
			p.Terminal++
		}
	}
	return p, nil
}

// ---- detalle ----

type detailRepo struct{ s *Store }

func (r *detailRepo) SnapshotCarton(_ context.Context, assignmentID, divisionID string) (int64, error) {
	if err := r.s.lock("Details.SnapshotCarton"); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()
	var n int64
	for _, st := range r.s.data.wh01 {
		p, ok := r.s.data.products[st.ProductID]
		if !st.IsActive || !ok || p.DivisionID != divisionID {
			continue
		}
		d := &entity.CartonDetail{
			ID:             uuid.New().String(),
			AssignmentID:   assignmentID,
			ProductID:      st.ProductID,
			SystemCartons:  st.Cartons,
			SystemSubUnits: st.SubUnits,
			SystemPieces:   st.Pieces,
			SystemExpiry:   st.ExpiryDate,
			SystemShelfID:  st.ShelfID,
			ExpiryDate:     st.ExpiryDate,
			ShelfID:        st.ShelfID,
		}
		r.s.data.cartonDetails[d.ID] = d
		n++
	}
	return n, nil
}

// joinCarton copia la línea con los datos de producto y rak.
func (r *detailRepo) joinCarton(d *entity.CartonDetail) *entity.CartonDetail {
	cp := *d
	if p, ok := r.s.data.products[d.ProductID]; ok {
		cp.ProductCode, cp.ProductName = p.Code, p.Name
	}
	cp.ShelfLabel = ""
	if d.ShelfID != nil {
		if sh, ok := r.s.data.shelves[*d.ShelfID]; ok {
			cp.ShelfLabel = sh.Label
		}
	}
	return &cp
}

func (r *detailRepo) ListCarton(_ context.Context, assignmentID string) ([]*entity.CartonDetail, error) {
	if err := r.s.lock("Details.ListCarton"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := make([]*entity.CartonDetail, 0)
	for _, d := range r.s.data.cartonDetails {
		if d.AssignmentID == assignmentID {
			out = append(out, r.joinCarton(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	return out, nil
}

func (r *detailRepo) GetCarton(_ context.Context, id string) (*entity.CartonDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.data.cartonDetails[id]
	if !ok {
		return nil, nil
	}
	return r.joinCarton(d), nil
}

func (r *detailRepo) UpdateCartonCount(_ context.Context, id string, count entity.CartonCount, at time.Time) error {
	if err := r.s.lock("Details.UpdateCartonCount"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	d, ok := r.s.data.cartonDetails[id]
	if !ok {
		return domain.NotFound("detalle %s", id)
	}
	d.PhysicalCartons, d.PhysicalSubUnits, d.PhysicalPieces = count.PhysicalCartons, count.PhysicalSubUnits, count.PhysicalPieces
	d.ExpiryDate, d.ShelfID = count.ExpiryDate, count.ShelfID
	d.CountedAt = &at
	return nil
}

func (r *detailRepo) CountUncounted(_ context.Context, assignmentID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, d := range r.s.data.cartonDetails {
		if d.AssignmentID == assignmentID && d.PhysicalCartons == nil {
			n++
		}
	}
	return n, nil
}

func (r *detailRepo) pieces(t entity.WarehouseType) (map[string]*entity.PiecesDetail, error) {
	m, ok := r.s.data.piecesDetails[t]
	if !ok {
		return nil, fmt.Errorf("detalle de pieces inexistente para %s", t)
	}
	return m, nil
}

func (r *detailRepo) joinPieces(d *entity.PiecesDetail) *entity.PiecesDetail {
	cp := *d
	if p, ok := r.s.data.products[d.ProductID]; ok {
		cp.ProductCode, cp.ProductName = p.Code, p.Name
	}
	return &cp
}

func (r *detailRepo) UpsertPieces(_ context.Context, d *entity.PiecesDetail) error {
	if err := r.s.lock("Details.UpsertPieces"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	m, err := r.pieces(d.Type)
	if err != nil {
		return err
	}
	for _, cur := range m {
		if cur.AssignmentID == d.AssignmentID && cur.ProductID == d.ProductID && cur.ContainerLabel == d.ContainerLabel {
			cur.PhysicalPieces = d.PhysicalPieces
			cur.CountedAt = d.CountedAt
			d.ID = cur.ID
			return nil
		}
	}
	cp := *d
	m[d.ID] = &cp
	return nil
}

func (r *detailRepo) listPieces(t entity.WarehouseType, keep func(*entity.PiecesDetail) bool) ([]*entity.PiecesDetail, error) {
	m, err := r.pieces(t)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.PiecesDetail, 0)
	for _, d := range m {
		if keep(d) {
			out = append(out, r.joinPieces(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductName != out[j].ProductName {
			return out[i].ProductName < out[j].ProductName
		}
		return out[i].ContainerLabel < out[j].ContainerLabel
	})
	return out, nil
}

func (r *detailRepo) ListPieces(_ context.Context, t entity.WarehouseType, assignmentID string) ([]*entity.PiecesDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listPieces(t, func(d *entity.PiecesDetail) bool { return d.AssignmentID == assignmentID })
}

func (r *detailRepo) ListPiecesByProduct(_ context.Context, t entity.WarehouseType, assignmentID, productID string) ([]*entity.PiecesDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.listPieces(t, func(d *entity.PiecesDetail) bool {
		return d.AssignmentID == assignmentID && d.ProductID == productID
	})
}

func (r *detailRepo) GetPieces(_ context.Context, t entity.WarehouseType, id string) (*entity.PiecesDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.pieces(t)
	if err != nil {
		return nil, err
	}
	d, ok := m[id]
	if !ok {
		return nil, nil
	}
	return r.joinPieces(d), nil
}

func (r *detailRepo) DeletePieces(_ context.Context, t entity.WarehouseType, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, err := r.pieces(t)
	if err != nil {
		return err
	}
	delete(m, id)
	return nil
}

func (r *detailRepo) SumByProduct(_ context.Context, t entity.WarehouseType, assignmentID string) (map[string]int, error) {
	if err := r.s.lock("Details.SumByProduct"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	m, err := r.pieces(t)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, d := range m {
		if d.AssignmentID == assignmentID {
			out[d.ProductID] += d.PhysicalPieces
		}
	}
	return out, nil
}

func (r *detailRepo) DeleteAllForAssignment(_ context.Context, assignmentID string) error {
	if err := r.s.lock("Details.DeleteAllForAssignment"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for id, d := range r.s.data.cartonDetails {
		if d.AssignmentID == assignmentID {
			delete(r.s.data.cartonDetails, id)
		}
	}
	for _, m := range r.s.data.piecesDetails {
		for id, d := range m {
			if d.AssignmentID == assignmentID {
				delete(m, id)
			}
		}
	}
	return nil
}
