package ingest_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/infrastructure/memstore"
	"github.com/ciptastok/opname-api/pkg/logger"
)

var (
	ctx   = context.Background()
	admin = entity.Actor{UserID: "admin", RoleID: 1, Address: "10.0.0.1"}
	staff = entity.Actor{UserID: "staff", RoleID: 2}
)

// rowsReader SheetReader de prueba que devuelve filas fijas.
type rowsReader struct {
	rows [][]string
	err  error
}

func (r rowsReader) ReadRows(io.Reader) ([][]string, error) { return r.rows, r.err }

type env struct {
	store *memstore.Store
	rec   *activity.Recorder
	uc    *ingest.UseCase
}

func newEnv(t *testing.T, reader ingest.SheetReader) *env {
	t.Helper()
	price := decimal.NewFromInt(99000)
	store := memstore.New()
	store.Load(memstore.Seed{
		Divisions: []entity.Division{
			{ID: "div-bsc", Code: "BSC", Name: "BISCUIT"},
			{ID: "div-cnd", Code: "CND", Name: "CANDY"},
		},
		Shelves: []entity.Shelf{{ID: "rak-a1", Label: "A1"}},
		Products: []entity.Product{
			{ID: "prod-old", Code: "OLD999", Name: "Producto Viejo", DivisionID: "div-bsc"},
			{ID: "prod-wfr", Code: "WFR002", Name: "Wafer", DivisionID: "div-bsc", UnitPrice: &price},
		},
		StockWH01: []entity.StockCarton{
			{ProductID: "prod-old", Cartons: 8, IsActive: true},
		},
		StockPcs: []entity.StockPieces{
			{Type: entity.WarehouseWH02, ProductID: "prod-wfr", TotalPieces: 30, IsActive: true},
		},
	})
	rec := activity.NewRecorder(store, logger.Nop())
	if reader == nil {
		reader = rowsReader{rows: wh01Sheet}
	}
	uc := ingest.NewUseCase(memstore.NewTxRunner(store), reader, rec, logger.Nop(), ingest.Config{AdminRoleID: 1, MaxRowErrors: 2})
	return &env{store: store, rec: rec, uc: uc}
}

func (e *env) product(t *testing.T, code string) *entity.Product {
	t.Helper()
	p, err := e.store.Repositories().Products.GetByCode(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, p, "producto %s", code)
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Upload WH01
// ──────────────────────────────────────────────────────────────────────────────

func TestUpload_WH01_ReemplazaFotoActiva(t *testing.T) {
	e := newEnv(t, nil)
	res, err := e.uc.UploadFile(ctx, admin, entity.WarehouseWH01, nil)
	require.NoError(t, err)

	assert.Equal(t, "WH01", res.WarehouseType)
	assert.Equal(t, 2, res.ProcessedCount)
	assert.Equal(t, 0, res.SkippedCount)
	assert.Equal(t, int64(1), res.Deactivated)
	assert.Empty(t, res.Errors)

	old, ok := e.store.CartonStock("prod-old")
	require.True(t, ok)
	assert.False(t, old.IsActive, "lo que no viene en la hoja queda inactivo")
	assert.Equal(t, 8, old.Cartons, "desactivar no borra cantidades")

	bsk := e.product(t, "BSK001")
	assert.Equal(t, "div-bsc", bsk.DivisionID)
	require.NotNil(t, bsk.Barcode)
	assert.Equal(t, "8991001", *bsk.Barcode)
	st, ok := e.store.CartonStock(bsk.ID)
	require.True(t, ok)
	assert.True(t, st.IsActive)
	assert.Equal(t, 5, st.Cartons)
	assert.Equal(t, 1, st.SubUnits)
	assert.Equal(t, 2, st.Pieces)
	require.NotNil(t, st.ShelfID)
	assert.Equal(t, "rak-a1", *st.ShelfID, "rak existente se reutiliza")

	// Un solo ledger activo por producto: los otros dos quedan como placeholders inactivos.
	for _, other := range []entity.WarehouseType{entity.WarehouseWH02, entity.WarehouseWH03} {
		ps, ok := e.store.PiecesStock(other, bsk.ID)
		require.True(t, ok, "placeholder %s", other)
		assert.False(t, ps.IsActive)
		assert.Zero(t, ps.TotalPieces)
	}

	// WFR002 estaba activo en WH02 y ahora pasa a WH01.
	wfr := e.product(t, "WFR002")
	assert.Equal(t, "prod-wfr", wfr.ID, "el pcode identifica al producto")
	require.NotNil(t, wfr.UnitPrice)
	assert.True(t, decimal.NewFromInt(99000).Equal(*wfr.UnitPrice), "precio vacío conserva el anterior")
	ps, _ := e.store.PiecesStock(entity.WarehouseWH02, "prod-wfr")
	assert.False(t, ps.IsActive)
	assert.Equal(t, 30, ps.TotalPieces)

	e.rec.Wait()
	logs := e.store.Logs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "WH01")
}

func TestUpload_WH01_RakNuevoSeCrea(t *testing.T) {
	e := newEnv(t, nil)
	rows := [][]string{
		wh01Sheet[0],
		wh01Sheet[1],
		{"1", "BISCUIT", "BSK001", "Biskuit Kelapa", "5", "20", "", "", "20", "z9", ""},
		{"2", "BISCUIT", "BSK002", "Biskuit Susu", "5", "20", "", "", "20", "Z9", ""},
	}
	_, err := e.uc.Upload(ctx, admin, entity.WarehouseWH01, rows)
	require.NoError(t, err)

	a, _ := e.store.CartonStock(e.product(t, "BSK001").ID)
	b, _ := e.store.CartonStock(e.product(t, "BSK002").ID)
	require.NotNil(t, a.ShelfID)
	require.NotNil(t, b.ShelfID)
	assert.Equal(t, *a.ShelfID, *b.ShelfID, "etiquetas sin distinguir mayúsculas")

	shelves, err := e.store.Repositories().Shelves.List(ctx)
	require.NoError(t, err)
	assert.Len(t, shelves, 2)
}

func TestUpload_WH01_PrimerProductoConPalabraDeSubCabecera(t *testing.T) {
	e := newEnv(t, nil)
	rows := [][]string{
		wh01Sheet[0],
		{"1", "BISCUIT", "BSK001", "Biskuit Kecil", "5", "20", "", "", "45", "", ""},
		{"2", "BISCUIT", "BSK002", "Biskuit Besar", "5", "20", "", "", "20", "", ""},
	}
	res, err := e.uc.Upload(ctx, admin, entity.WarehouseWH01, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProcessedCount)
	assert.Empty(t, res.Errors)

	kecil := e.product(t, "BSK001")
	assert.Equal(t, "Biskuit Kecil", kecil.Name)
	st, ok := e.store.CartonStock(kecil.ID)
	require.True(t, ok)
	assert.True(t, st.IsActive)
	assert.Equal(t, [3]int{2, 1, 0}, [3]int{st.Cartons, st.SubUnits, st.Pieces})
}

func TestUpload_ErroresPorFila_SeAcumulanYSeLimitan(t *testing.T) {
	e := newEnv(t, nil)
	rows := [][]string{
		wh01Sheet[0],
		wh01Sheet[1],
		{"1", "SNACK", "SNK001", "Keripik", "5", "20", "", "", "10", "", ""},
		{"2", "BISCUIT", "", "Sin código", "5", "20", "", "", "10", "", ""},
		{"", "", "", "", "", "", "", "", "", "", ""},
		{"4", "cnd", "CDY003", "Permen Mint", "5", "20", "", "", "45", "", ""},
		{"5", "UNKNOWN", "UNK001", "Sin división", "5", "20", "", "", "10", "", ""},
	}
	res, err := e.uc.Upload(ctx, admin, entity.WarehouseWH01, rows)
	require.NoError(t, err)

	assert.Equal(t, 1, res.ProcessedCount, "CDY003 se resuelve por código de división")
	assert.Equal(t, 3, res.SkippedCount, "la fila vacía no cuenta")
	require.Len(t, res.Errors, 2, "MaxRowErrors")
	assert.Contains(t, res.Errors[0], "fila 3")
	assert.Contains(t, res.Errors[1], "fila 4")

	cdy := e.product(t, "CDY003")
	assert.Equal(t, "div-cnd", cdy.DivisionID)
	st, _ := e.store.CartonStock(cdy.ID)
	assert.Equal(t, [3]int{2, 1, 0}, [3]int{st.Cartons, st.SubUnits, st.Pieces})
}

// ──────────────────────────────────────────────────────────────────────────────
// Upload WH02/WH03
// ──────────────────────────────────────────────────────────────────────────────

func TestUpload_WH03_TotalEnPieces(t *testing.T) {
	e := newEnv(t, nil)
	rows := [][]string{
		{"No", "PCODE", "Nama Barang", "Kategori", "Total Pcs"},
		{"", "", "", "", ""},
		{"1", "WFR002", "Wafer", "BISCUIT", "64"},
	}
	res, err := e.uc.Upload(ctx, admin, entity.WarehouseWH03, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedCount)
	assert.Equal(t, int64(0), res.Deactivated)

	st, ok := e.store.PiecesStock(entity.WarehouseWH03, "prod-wfr")
	require.True(t, ok)
	assert.True(t, st.IsActive)
	assert.Equal(t, 64, st.TotalPieces)

	wh02, _ := e.store.PiecesStock(entity.WarehouseWH02, "prod-wfr")
	assert.False(t, wh02.IsActive)
	wh01, ok := e.store.CartonStock("prod-wfr")
	require.True(t, ok)
	assert.False(t, wh01.IsActive)
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores fatales y permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestUpload_ErrorFatal_RevierteTodo(t *testing.T) {
	e := newEnv(t, nil)
	e.store.FailNext("StockWH01.Upsert", nil, errors.New("conexión perdida"))

	_, err := e.uc.Upload(ctx, admin, entity.WarehouseWH01, wh01Sheet)
	require.Error(t, err)

	old, _ := e.store.CartonStock("prod-old")
	assert.True(t, old.IsActive, "la desactivación también se revierte")
	p, err := e.store.Repositories().Products.GetByCode(ctx, "BSK001")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpload_Permisos(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.uc.UploadFile(ctx, staff, entity.WarehouseWH01, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.uc.Upload(ctx, staff, entity.WarehouseWH01, wh01Sheet)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpload_Validaciones(t *testing.T) {
	e := newEnv(t, rowsReader{err: errors.New("zip: not a valid zip file")})
	_, err := e.uc.UploadFile(ctx, admin, entity.WarehouseWH01, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.uc.Upload(ctx, admin, entity.WarehouseType("WH09"), wh01Sheet)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.uc.Upload(ctx, admin, entity.WarehouseWH01, wh01Sheet[:2])
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
