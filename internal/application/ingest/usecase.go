// Package ingest reemplaza la foto de stock activa de un tipo de gudang con el contenido
// de una hoja de cálculo.
package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
	"github.com/ciptastok/opname-api/pkg/logger"
)

// TxRunner ejecuta fn en una transacción con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repositories) error) error
}

// SheetReader lee las filas de la primera hoja de un libro.
type SheetReader interface {
	ReadRows(r io.Reader) ([][]string, error)
}

// Config parámetros de la ingesta.
type Config struct {
	AdminRoleID  int
	MaxRowErrors int // errores por fila devueltos al cliente
}

// UseCase caso de uso de carga de productos y stock desde Excel.
type UseCase struct {
	tx       TxRunner
	reader   SheetReader
	activity *activity.Recorder
	log      *logger.Logger
	cfg      Config
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx TxRunner, reader SheetReader, rec *activity.Recorder, log *logger.Logger, cfg Config) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxRowErrors <= 0 {
		cfg.MaxRowErrors = 10
	}
	return &UseCase{tx: tx, reader: reader, activity: rec, log: log.Component("ingest"), cfg: cfg}
}

// UploadFile lee el libro y delega en Upload.
func (uc *UseCase) UploadFile(ctx context.Context, actor entity.Actor, t entity.WarehouseType, file io.Reader) (*dto.UploadResult, error) {
	if actor.RoleID != uc.cfg.AdminRoleID {
		return nil, domain.Forbidden("solo el administrador puede cargar productos")
	}
	rows, err := uc.reader.ReadRows(file)
	if err != nil {
		return nil, domain.Invalid("no se pudo leer el archivo Excel: %v", err)
	}
	return uc.Upload(ctx, actor, t, rows)
}

// Upload desactiva todo el stock activo del tipo t y reactiva/crea lo que trae la hoja.
// Los errores por fila saltan la fila y se acumulan; cualquier otro error revierte la carga completa.
func (uc *UseCase) Upload(ctx context.Context, actor entity.Actor, t entity.WarehouseType, rows [][]string) (*dto.UploadResult, error) {
	if actor.RoleID != uc.cfg.AdminRoleID {
		return nil, domain.Forbidden("solo el administrador puede cargar productos")
	}
	if !t.Valid() {
		return nil, domain.Invalid("tipo de gudang inválido: %q", t)
	}
	start, err := DetectDataStart(rows)
	if err != nil {
		return nil, err
	}
	parser := NewParser(t, rows[0])

	result := &dto.UploadResult{WarehouseType: string(t), Errors: []string{}}
	err = uc.tx.Run(ctx, func(r repository.Repositories) error {
		// Cada carga arranca de cero: el resultado del intento anterior no cuenta.
		*result = dto.UploadResult{WarehouseType: string(t), Errors: []string{}}

		res, err := newResolver(ctx, r)
		if err != nil {
			return err
		}
		if t.IsCarton() {
			result.Deactivated, err = r.StockWH01.DeactivateAll(ctx)
		} else {
			result.Deactivated, err = r.StockPcs.DeactivateAll(ctx, t)
		}
		if err != nil {
			return fmt.Errorf("desactivar stock %s: %w", t, err)
		}

		for i := start; i < len(rows); i++ {
			if Blank(rows[i]) {
				continue
			}
			row := parser.Parse(i+1, rows[i])
			msg, err := uc.ingestRow(ctx, r, res, t, row)
			if err != nil {
				return err
			}
			if msg != "" {
				result.SkippedCount++
				if len(result.Errors) < uc.cfg.MaxRowErrors {
					result.Errors = append(result.Errors, fmt.Sprintf("fila %d: %s", row.Line, msg))
				}
				continue
			}
			result.ProcessedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("type", string(t)).Int("processed", result.ProcessedCount).
		Int("skipped", result.SkippedCount).Int64("deactivated", result.Deactivated).Msg("carga de productos completada")
	uc.activity.Record(actor, "Cargó productos %s: %d procesados", t, result.ProcessedCount)
	return result, nil
}

// ingestRow procesa una fila. msg no vacío es un error recuperable (la fila se salta);
// err es fatal y revierte la carga.
func (uc *UseCase) ingestRow(ctx context.Context, r repository.Repositories, res *resolver, t entity.WarehouseType, row Row) (msg string, err error) {
	if row.Code == "" || row.Name == "" {
		return "pcode o nombre de producto vacío", nil
	}
	divisionID, msg := res.division(row)
	if msg != "" {
		return msg, nil
	}

	product := &entity.Product{
		Code:          row.Code,
		Name:          row.Name,
		DivisionID:    divisionID,
		SubUnitFactor: row.SubUnitFactor,
		CartonFactor:  row.CartonFactor,
		UnitPrice:     row.UnitPrice,
	}
	if row.Barcode != "" {
		barcode := row.Barcode
		product.Barcode = &barcode
	}
	productID, err := r.Products.UpsertByCode(ctx, product)
	if err != nil {
		return "", fmt.Errorf("fila %d: upsert producto: %w", row.Line, err)
	}

	if t.IsCarton() {
		shelfID, err := res.shelf(ctx, row.ShelfLabel)
		if err != nil {
			return "", fmt.Errorf("fila %d: rak: %w", row.Line, err)
		}
		err = r.StockWH01.Upsert(ctx, &entity.StockCarton{
			ProductID:  productID,
			Cartons:    row.Quantity.Cartons,
			SubUnits:   row.Quantity.SubUnits,
			Pieces:     row.Quantity.Pieces,
			ExpiryDate: row.ExpiryDate,
			ShelfID:    shelfID,
			IsActive:   true,
		})
		if err != nil {
			return "", fmt.Errorf("fila %d: stock WH01: %w", row.Line, err)
		}
	} else {
		err = r.StockPcs.Upsert(ctx, &entity.StockPieces{Type: t, ProductID: productID, TotalPieces: row.TotalPieces, IsActive: true})
		if err != nil {
			return "", fmt.Errorf("fila %d: stock %s: %w", row.Line, t, err)
		}
	}

	// Un producto queda activo en un solo tipo; los otros dos existen como placeholders inactivos.
	for _, other := range t.Others() {
		if other.IsCarton() {
			err = r.StockWH01.EnsureInactive(ctx, productID)
		} else {
			err = r.StockPcs.EnsureInactive(ctx, other, productID)
		}
		if err != nil {
			return "", fmt.Errorf("fila %d: placeholder %s: %w", row.Line, other, err)
		}
	}
	return "", nil
}
