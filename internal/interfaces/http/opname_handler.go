package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/application/opname"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// OpnameHandler maneja batches, asignaciones y conteos de opname (protegido).
type OpnameHandler struct {
	uc *opname.UseCase
}

// NewOpnameHandler construye el handler.
func NewOpnameHandler(uc *opname.UseCase) *OpnameHandler {
	return &OpnameHandler{uc: uc}
}

// CreateBatch godoc
// @Summary      Crear batch de opname
// @Description  Crea el batch con una asignación por usuario. En WH01 toma el snapshot
//
//	del stock activo de la división de cada usuario.
//
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "name, warehouse_type, user_ids"
// @Success      201   {object}  dto.BatchCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/opname/batch [post]
func (h *OpnameHandler) CreateBatch(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateBatch(c.Context(), GetActor(c), opname.CreateBatchInput{
		Name:          in.Name,
		WarehouseType: in.WarehouseType,
		UserIDs:       in.UserIDs,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListBatches godoc
// @Summary      Listar batches
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.BatchResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/opname/batch [get]
func (h *OpnameHandler) ListBatches(c *fiber.Ctx) error {
	out, err := h.uc.ListBatches(c.Context(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBatch godoc
// @Summary      Obtener batch con sus asignaciones
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del batch"
// @Success      200  {object}  dto.BatchDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/batch/{id} [get]
func (h *OpnameHandler) GetBatch(c *fiber.Ctx) error {
	out, err := h.uc.GetBatch(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BatchReport godoc
// @Summary      Reporte del batch
// @Description  Cabecera, asignaciones y detalle por asignación para renderizadores externos.
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del batch"
// @Success      200  {object}  dto.BatchReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/batch/{id}/report [get]
func (h *OpnameHandler) BatchReport(c *fiber.Ctx) error {
	out, err := h.uc.BatchReport(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetAssignment godoc
// @Summary      Detalle de una asignación (admin)
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.AssignmentDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/assignment/{assignment_id} [get]
func (h *OpnameHandler) GetAssignment(c *fiber.Ctx) error {
	out, err := h.uc.GetAssignmentDetail(c.Context(), GetActor(c), c.Params("assignment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListActiveAssignments godoc
// @Summary      Asignaciones en curso
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AssignmentResponse
// @Router       /api/opname/assignments/active [get]
func (h *OpnameHandler) ListActiveAssignments(c *fiber.Ctx) error {
	out, err := h.uc.ListActiveAssignments(c.Context(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Decide godoc
// @Summary      Aprobar o rechazar una asignación enviada
// @Description  Approved escribe el conteo físico en el ledger; Rejected no toca el stock.
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        assignment_id  path  string             true  "ID de la asignación"
// @Param        body           body  dto.DecideRequest  true  "status: Approved | Rejected"
// @Success      200  {object}  dto.AssignmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/opname/approve/{assignment_id} [post]
func (h *OpnameHandler) Decide(c *fiber.Ctx) error {
	var in dto.DecideRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	decision, err := opname.ParseDecision(in.Status)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Decide(c.Context(), GetActor(c), c.Params("assignment_id"), decision)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteAssignment godoc
// @Summary      Eliminar una asignación no enviada
// @Description  Reintenta ante deadlock. Solo Pending o In Progress.
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/opname/assignment/{assignment_id} [delete]
func (h *OpnameHandler) DeleteAssignment(c *fiber.Ctx) error {
	if err := h.uc.DeleteAssignment(c.Context(), GetActor(c), c.Params("assignment_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "asignación eliminada"})
}

// MyTask godoc
// @Summary      Tarea activa del usuario
// @Description  Devuelve la asignación Pending o In Progress más reciente y la reclama.
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AssignmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/mytask [get]
func (h *OpnameHandler) MyTask(c *fiber.Ctx) error {
	out, err := h.uc.MyTask(c.Context(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ClaimTask godoc
// @Summary      Reclamar una asignación
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.AssignmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/opname/claim/{assignment_id} [post]
func (h *OpnameHandler) ClaimTask(c *fiber.Ctx) error {
	out, err := h.uc.ClaimTask(c.Context(), GetActor(c), c.Params("assignment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Enviar el conteo a revisión
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.AssignmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/opname/submit/{assignment_id} [post]
func (h *OpnameHandler) Submit(c *fiber.Ctx) error {
	out, err := h.uc.Submit(c.Context(), GetActor(c), c.Params("assignment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListCartonDetails godoc
// @Summary      Líneas WH01 de la asignación
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {array}   dto.CartonDetailResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/opname/details/wh01/{assignment_id} [get]
func (h *OpnameHandler) ListCartonDetails(c *fiber.Ctx) error {
	out, err := h.uc.ListCartonDetails(c.Context(), GetActor(c), c.Params("assignment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateCartonDetail godoc
// @Summary      Registrar conteo físico de una línea WH01
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        detail_id  path  string                         true  "ID de la línea"
// @Param        body       body  dto.UpdateCartonDetailRequest  true  "physical_cartons, physical_sub_units, physical_pieces, expiry_date, shelf_id"
// @Success      200  {object}  dto.CartonDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/opname/details/wh01/{detail_id} [put]
func (h *OpnameHandler) UpdateCartonDetail(c *fiber.Ctx) error {
	var in dto.UpdateCartonDetailRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	count := entity.CartonCount{
		PhysicalCartons:  in.PhysicalCartons,
		PhysicalSubUnits: in.PhysicalSubUnits,
		PhysicalPieces:   in.PhysicalPieces,
		ShelfID:          in.ShelfID,
	}
	if in.ExpiryDate != nil && *in.ExpiryDate != "" {
		d, err := time.Parse(time.DateOnly, *in.ExpiryDate)
		if err != nil {
			return writeError(c, domain.Invalid("expiry_date debe tener formato YYYY-MM-DD"))
		}
		count.ExpiryDate = &d
	}
	out, err := h.uc.UpdateCartonDetail(c.Context(), GetActor(c), c.Params("detail_id"), count)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListTaskProducts godoc
// @Summary      Productos a contar en WH02/WH03 con su total acumulado
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        type           path  string  true  "WH02 | WH03"
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Success      200  {array}   dto.ProductCountResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/opname/products/{type}/{assignment_id} [get]
func (h *OpnameHandler) ListTaskProducts(c *fiber.Ctx) error {
	t, err := pathWarehouseType(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListTaskProducts(c.Context(), GetActor(c), t, c.Params("assignment_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListContainerRows godoc
// @Summary      Filas de koli de un producto
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        type           path  string  true  "WH02 | WH03"
// @Param        assignment_id  path  string  true  "ID de la asignación"
// @Param        product_id     path  string  true  "ID del producto"
// @Success      200  {array}  dto.PiecesDetailResponse
// @Router       /api/opname/details/{type}/{assignment_id}/{product_id} [get]
func (h *OpnameHandler) ListContainerRows(c *fiber.Ctx) error {
	t, err := pathWarehouseType(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListContainerRows(c.Context(), GetActor(c), t, c.Params("assignment_id"), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SaveContainerRow godoc
// @Summary      Guardar conteo de un koli
// @Description  Misma etiqueta de koli para el mismo producto sobrescribe el conteo.
// @Tags         opname
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                       true  "WH02 | WH03"
// @Param        body  body  dto.SaveContainerRowRequest  true  "assignment_id, product_id, container_label, physical_pieces"
// @Success      200  {object}  dto.PiecesDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/opname/details/{type} [post]
func (h *OpnameHandler) SaveContainerRow(c *fiber.Ctx) error {
	t, err := pathWarehouseType(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.SaveContainerRowRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.SaveContainerRow(c.Context(), GetActor(c), t, opname.ContainerRowInput{
		AssignmentID:   in.AssignmentID,
		ProductID:      in.ProductID,
		ContainerLabel: in.ContainerLabel,
		PhysicalPieces: *in.PhysicalPieces,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteContainerRow godoc
// @Summary      Eliminar una fila de koli
// @Tags         opname
// @Security     Bearer
// @Produce      json
// @Param        type       path  string  true  "WH02 | WH03"
// @Param        detail_id  path  string  true  "ID de la fila"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opname/details/{type}/{detail_id} [delete]
func (h *OpnameHandler) DeleteContainerRow(c *fiber.Ctx) error {
	t, err := pathWarehouseType(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.DeleteContainerRow(c.Context(), GetActor(c), t, c.Params("detail_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "fila eliminada"})
}

func pathWarehouseType(c *fiber.Ctx) (entity.WarehouseType, error) {
	t, err := entity.ParseWarehouseType(c.Params("type"))
	if err != nil {
		return "", domain.Invalid("%s", err.Error())
	}
	return t, nil
}
