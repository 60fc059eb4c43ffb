package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/application/opname"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/infrastructure/memstore"
	"github.com/ciptastok/opname-api/internal/infrastructure/spreadsheet"
	apphttp "github.com/ciptastok/opname-api/internal/interfaces/http"
	"github.com/ciptastok/opname-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	adminID = "admin"
	userID  = "user-u"
)

type api struct {
	app   *fiber.App
	store *memstore.Store
	rec   *activity.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	div := "div-d1"
	store := memstore.New()
	store.Load(memstore.Seed{
		Divisions: []entity.Division{{ID: div, Code: "BSC", Name: "BISCUIT"}},
		Users: []entity.User{
			{ID: adminID, Name: "Admin", RoleID: testAdminRoleID, IsActive: true},
			{ID: userID, Name: "Udin", RoleID: testUserRoleID, DivisionID: &div, IsActive: true},
		},
		Products: []entity.Product{
			{ID: "prod-bs", Code: "BSK004", Name: "Biskuit Remuk", DivisionID: div},
		},
		StockWH01: []entity.StockCarton{{ProductID: "prod-bs"}},
		StockPcs: []entity.StockPieces{
			{Type: entity.WarehouseWH02, ProductID: "prod-bs", TotalPieces: 40, IsActive: true},
			{Type: entity.WarehouseWH03, ProductID: "prod-bs"},
		},
	})
	rec := activity.NewRecorder(store, logger.Nop())
	tx := memstore.NewTxRunner(store)
	opUC := opname.NewUseCase(tx, store.Repositories(), rec, logger.Nop(), opname.DefaultConfig())
	inUC := ingest.NewUseCase(tx, spreadsheet.NewReader(), rec, logger.Nop(), ingest.Config{AdminRoleID: testAdminRoleID})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		OpnameUC:    opUC,
		IngestUC:    inUC,
		JWTSecret:   testJWTSecret,
		AdminRoleID: testAdminRoleID,
	})
	t.Cleanup(rec.Wait)
	return &api{app: app, store: store, rec: rec}
}

func (a *api) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func xlsxUpload(t *testing.T, filename string, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	var book bytes.Buffer
	_, err := f.WriteTo(&book)
	require.NoError(t, err)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(book.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo WH02 completo por HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestHTTP_FlujoWH02_AprobacionActualizaLedger(t *testing.T) {
	a := newAPI(t)
	adminTok := tokenFor(t, adminID, testAdminRoleID)
	userTok := tokenFor(t, userID, testUserRoleID)

	resp := a.do(t, http.MethodPost, "/api/opname/batch", adminTok, dto.CreateBatchRequest{
		Name: "Opname Koli", WarehouseType: "wh02", UserIDs: []string{userID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.BatchCreatedResponse](t, resp)
	assert.Equal(t, "WH02", created.Batch.WarehouseType)
	assert.Equal(t, 1, created.Assignments)

	resp = a.do(t, http.MethodGet, "/api/opname/mytask", userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task := decode[dto.AssignmentResponse](t, resp)
	assert.Equal(t, string(entity.AssignmentInProgress), task.Status)

	for label, pcs := range map[string]int{"K1": 25, "K2": 2} {
		n := pcs
		resp = a.do(t, http.MethodPost, "/api/opname/details/wh02", userTok, dto.SaveContainerRowRequest{
			AssignmentID: task.ID, ProductID: "prod-bs", ContainerLabel: label, PhysicalPieces: &n,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, "koli %s", label)
		resp.Body.Close()
	}

	resp = a.do(t, http.MethodGet, "/api/opname/products/WH02/"+task.ID, userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	products := decode[[]dto.ProductCountResponse](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, 27, products[0].CountedPieces)
	assert.Equal(t, 40, products[0].SystemPieces)

	resp = a.do(t, http.MethodGet, "/api/opname/details/WH02/"+task.ID+"/prod-bs", userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.PiecesDetailResponse](t, resp), 2)

	resp = a.do(t, http.MethodPost, "/api/opname/submit/"+task.ID, userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(entity.AssignmentSubmitted), decode[dto.AssignmentResponse](t, resp).Status)

	resp = a.do(t, http.MethodPost, "/api/opname/approve/"+task.ID, adminTok, dto.DecideRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(entity.AssignmentApproved), decode[dto.AssignmentResponse](t, resp).Status)

	st, ok := a.store.PiecesStock(entity.WarehouseWH02, "prod-bs")
	require.True(t, ok)
	assert.Equal(t, 27, st.TotalPieces)

	resp = a.do(t, http.MethodGet, "/api/opname/batch/"+created.Batch.ID, adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(entity.BatchCompleted), decode[dto.BatchDetailResponse](t, resp).Batch.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

// La escritura del log de actividad termina después de que fasthttp recicló el
// contexto del request; la entrada igual llega completa al sink.
func TestHTTP_LogDeActividad_TrasCerrarElRequest(t *testing.T) {
	a := newAPI(t)
	adminTok := tokenFor(t, adminID, testAdminRoleID)
	resp := a.do(t, http.MethodPost, "/api/opname/batch", adminTok, dto.CreateBatchRequest{
		Name: "Opname Log", WarehouseType: "WH02", UserIDs: []string{userID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	for i := 0; i < 3; i++ {
		resp = a.do(t, http.MethodGet, "/api/opname/batch", adminTok, nil)
		resp.Body.Close()
	}

	a.rec.Wait()
	logs := a.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, adminID, logs[0].ActorID)
	assert.Contains(t, logs[0].Message, "Opname Log")
}

func TestHTTP_RutasAdmin_UsuarioRecibe403(t *testing.T) {
	a := newAPI(t)
	userTok := tokenFor(t, userID, testUserRoleID)
	for _, path := range []string{"/api/opname/batch", "/api/opname/assignments/active"} {
		resp := a.do(t, http.MethodGet, path, userTok, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestHTTP_CuerpoInvalido_400(t *testing.T) {
	a := newAPI(t)
	adminTok := tokenFor(t, adminID, testAdminRoleID)

	resp := a.do(t, http.MethodPost, "/api/opname/batch", adminTok, dto.CreateBatchRequest{Name: "Sin usuarios", WarehouseType: "WH01"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Message, "user_ids")

	req := httptest.NewRequest(http.MethodPost, "/api/opname/batch", strings.NewReader("{no json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", adminTok)
	raw, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, raw).Code)
}

func TestHTTP_DecisionInvalida_400(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/opname/approve/x", tokenFor(t, adminID, testAdminRoleID), dto.DecideRequest{Status: "Maybe"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHTTP_AsignacionInexistente_404(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodDelete, "/api/opname/assignment/no-existe", tokenFor(t, adminID, testAdminRoleID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHTTP_SinTarea_404(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodGet, "/api/opname/mytask", tokenFor(t, userID, testUserRoleID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHTTP_SubmitDosVeces_409(t *testing.T) {
	a := newAPI(t)
	adminTok := tokenFor(t, adminID, testAdminRoleID)
	userTok := tokenFor(t, userID, testUserRoleID)
	resp := a.do(t, http.MethodPost, "/api/opname/batch", adminTok, dto.CreateBatchRequest{
		Name: "Opname", WarehouseType: "WH02", UserIDs: []string{userID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	task := decode[dto.AssignmentResponse](t, a.do(t, http.MethodGet, "/api/opname/mytask", userTok, nil))

	resp = a.do(t, http.MethodPost, "/api/opname/submit/"+task.ID, userTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = a.do(t, http.MethodPost, "/api/opname/submit/"+task.ID, userTok, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHTTP_TipoDeGudangInvalido_400(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodGet, "/api/opname/products/WH09/x", tokenFor(t, userID, testUserRoleID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHTTP_FechaDeVencimientoMalFormada_400(t *testing.T) {
	a := newAPI(t)
	bad := "31/01/2025"
	resp := a.do(t, http.MethodPut, "/api/opname/details/wh01/d1", tokenFor(t, userID, testUserRoleID),
		dto.UpdateCartonDetailRequest{ExpiryDate: &bad})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Message, "YYYY-MM-DD")
}

// ──────────────────────────────────────────────────────────────────────────────
// Upload
// ──────────────────────────────────────────────────────────────────────────────

func TestHTTP_UploadWH03_Xlsx(t *testing.T) {
	a := newAPI(t)
	body, ctype := xlsxUpload(t, "stok-wh03.xlsx", [][]any{
		{"No", "PCODE", "Nama Barang", "Kategori", "Total Pcs"},
		{1, "BSK004", "Biskuit Remuk", "BISCUIT", 64},
		{2, "BSK010", "Biskuit Baru", "BISCUIT", 12},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/products/upload/wh03", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", tokenFor(t, adminID, testAdminRoleID))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[dto.UploadResult](t, resp)
	assert.Equal(t, "WH03", res.WarehouseType)
	assert.Equal(t, 2, res.ProcessedCount)
	assert.Empty(t, res.Errors)

	st, ok := a.store.PiecesStock(entity.WarehouseWH03, "prod-bs")
	require.True(t, ok)
	assert.True(t, st.IsActive)
	assert.Equal(t, 64, st.TotalPieces)
}

func TestHTTP_Upload_ExtensionNoXlsx_400(t *testing.T) {
	a := newAPI(t)
	body, ctype := xlsxUpload(t, "stok.csv", [][]any{{"No"}})
	req := httptest.NewRequest(http.MethodPost, "/api/products/upload/WH01", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", tokenFor(t, adminID, testAdminRoleID))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_FILE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHTTP_Upload_SinArchivo_400(t *testing.T) {
	a := newAPI(t)
	resp := a.do(t, http.MethodPost, "/api/products/upload/WH01", tokenFor(t, adminID, testAdminRoleID), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_FILE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestHTTP_Upload_Usuario403(t *testing.T) {
	a := newAPI(t)
	body, ctype := xlsxUpload(t, "stok.xlsx", [][]any{{"No"}})
	req := httptest.NewRequest(http.MethodPost, "/api/products/upload/WH01", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", tokenFor(t, userID, testUserRoleID))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
