package http

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/application/ingest"
)

// UploadHandler recibe las plantillas Excel de stock por tipo de gudang.
type UploadHandler struct {
	uc *ingest.UseCase
}

// NewUploadHandler construye el handler.
func NewUploadHandler(uc *ingest.UseCase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

// Upload godoc
// @Summary      Cargar plantilla de stock
// @Description  Reemplaza la foto activa del ledger del tipo indicado. Los productos que no
//
//	vienen en la hoja quedan inactivos. Los errores por fila no abortan la carga.
//
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        type  path      string  true  "WH01 | WH02 | WH03"
// @Param        file  formData  file    true  "Plantilla .xlsx"
// @Success      200   {object}  dto.UploadResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/products/upload/{type} [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	t, err := pathWarehouseType(c)
	if err != nil {
		return writeError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo file requerido"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "solo se aceptan archivos .xlsx"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el archivo"})
	}
	defer f.Close()

	out, err := h.uc.UploadFile(c.Context(), GetActor(c), t, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
