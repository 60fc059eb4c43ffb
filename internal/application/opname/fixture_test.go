package opname_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/application/opname"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/infrastructure/memstore"
	"github.com/ciptastok/opname-api/pkg/logger"
	"github.com/ciptastok/opname-api/pkg/retry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: división D1 con dos productos WH01 activos y uno WH02; D2 con uno WH01.
// ──────────────────────────────────────────────────────────────────────────────

const (
	divD1 = "div-d1"
	divD2 = "div-d2"

	prodBiskuit = "prod-1"
	prodWafer   = "prod-2"
	prodCandy   = "prod-3"
	prodBS      = "prod-4"
	prodOld     = "prod-5"
)

var (
	admin    = entity.Actor{UserID: "admin", RoleID: 1, Address: "10.0.0.1"}
	userU    = entity.Actor{UserID: "user-u", RoleID: 2, Address: "10.0.0.2"}
	userV    = entity.Actor{UserID: "user-v", RoleID: 2, Address: "10.0.0.3"}
	noDiv    = entity.Actor{UserID: "user-nodiv", RoleID: 2}
	inactive = entity.Actor{UserID: "user-inactive", RoleID: 2}
	orphan   = entity.Actor{UserID: "user-orphan", RoleID: 2}
	baseNow  = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memstore.Store
	rec   *activity.Recorder
	uc    *opname.UseCase
	clock time.Time
}

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	d1 := divD1
	d2 := divD2
	exp := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	store.Load(memstore.Seed{
		Divisions: []entity.Division{
			{ID: divD1, Code: "BSC", Name: "BISCUIT"},
			{ID: divD2, Code: "CND", Name: "CANDY"},
		},
		Shelves: []entity.Shelf{{ID: "rak-a1", Label: "A1"}, {ID: "rak-b2", Label: "B2"}},
		Users: []entity.User{
			{ID: admin.UserID, Name: "Admin", RoleID: 1, IsActive: true},
			{ID: userU.UserID, Name: "Udin", RoleID: 2, DivisionID: &d1, IsActive: true},
			{ID: userV.UserID, Name: "Vina", RoleID: 2, DivisionID: &d1, IsActive: true},
			{ID: "user-d2", Name: "Dewi", RoleID: 2, DivisionID: &d2, IsActive: true},
			{ID: noDiv.UserID, Name: "Nodi", RoleID: 2, IsActive: true},
			{ID: inactive.UserID, Name: "Iwan", RoleID: 2, DivisionID: &d1, IsActive: false},
			{ID: orphan.UserID, Name: "Oki", RoleID: 2, DivisionID: strp("div-borrada"), IsActive: true},
		},
		Products: []entity.Product{
			{ID: prodBiskuit, Code: "BSK001", Name: "Biskuit Kelapa", DivisionID: divD1, CartonFactor: intp(20), SubUnitFactor: intp(5)},
			{ID: prodWafer, Code: "WFR002", Name: "Wafer Coklat", DivisionID: divD1, CartonFactor: intp(24), SubUnitFactor: intp(6)},
			{ID: prodCandy, Code: "CDY003", Name: "Permen Mint", DivisionID: divD2},
			{ID: prodBS, Code: "BSK004", Name: "Biskuit Remuk", DivisionID: divD1},
			{ID: prodOld, Code: "BSK005", Name: "Biskuit Lama", DivisionID: divD1},
		},
		StockWH01: []entity.StockCarton{
			{ProductID: prodBiskuit, Cartons: 5, SubUnits: 1, Pieces: 2, ShelfID: strp("rak-a1"), ExpiryDate: &exp, IsActive: true},
			{ProductID: prodWafer, Cartons: 3, IsActive: true},
			{ProductID: prodCandy, Cartons: 1, SubUnits: 1, Pieces: 1, IsActive: true},
			{ProductID: prodOld, Cartons: 9, IsActive: false},
			{ProductID: prodBS},
		},
		StockPcs: []entity.StockPieces{
			{Type: entity.WarehouseWH02, ProductID: prodBS, TotalPieces: 40, IsActive: true},
			{Type: entity.WarehouseWH02, ProductID: prodBiskuit},
			{Type: entity.WarehouseWH03, ProductID: prodBS},
		},
	})

	rec := activity.NewRecorder(store, logger.Nop())
	cfg := opname.Config{
		AdminRoleID: 1,
		DeleteRetry: retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(time.Millisecond)},
	}
	f := &fixture{store: store, rec: rec, clock: baseNow}
	f.uc = opname.NewUseCase(memstore.NewTxRunner(store), store.Repositories(), rec, logger.Nop(), cfg)
	f.uc.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) createBatch(t *testing.T, wt entity.WarehouseType, users ...entity.Actor) *dto.BatchCreatedResponse {
	t.Helper()
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	out, err := f.uc.CreateBatch(context.Background(), admin, opname.CreateBatchInput{
		Name: "Opname Maret", WarehouseType: string(wt), UserIDs: ids,
	})
	require.NoError(t, err)
	return out
}

// myTask reclama la tarea del usuario y devuelve su ID.
func (f *fixture) myTask(t *testing.T, u entity.Actor) string {
	t.Helper()
	task, err := f.uc.MyTask(context.Background(), u)
	require.NoError(t, err)
	return task.ID
}

// countAll llena todas las líneas WH01 con el valor del sistema.
func (f *fixture) countAll(t *testing.T, u entity.Actor, assignmentID string) []dto.CartonDetailResponse {
	t.Helper()
	rows, err := f.uc.ListCartonDetails(context.Background(), u, assignmentID)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := f.uc.UpdateCartonDetail(context.Background(), u, r.ID, entity.CartonCount{
			PhysicalCartons:  intp(r.SystemCartons),
			PhysicalSubUnits: intp(r.SystemSubUnits),
			PhysicalPieces:   intp(r.SystemPieces),
		})
		require.NoError(t, err)
	}
	return rows
}
