package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/inventory"
)

const (
	// scanRows filas revisadas al buscar el inicio de los datos.
	scanRows = 10
	// fallbackStart inicio asumido si ninguna fila parece dato (plantilla con 3 filas de cabecera).
	fallbackStart = 3
	// positionalMinCells a partir de cuántas celdas una fila WH01 se lee por posición.
	positionalMinCells = 9
)

// Columnas de la plantilla WH01 por posición.
const (
	colSequence = iota
	colCategory
	colCode
	colName
	colSubUnitFactor
	colCartonFactor
	colUnitPrice
	colCartonDisplay // stock en karton con decimales, solo para mostrar
	colTotalPieces
	colShelf
	colBarcode
)

// field columna lógica reconocida por nombre de cabecera.
type field int

const (
	fieldSequence field = iota + 1
	fieldCategory
	fieldDivisionCode
	fieldCode
	fieldName
	fieldSubUnitFactor
	fieldCartonFactor
	fieldCartons
	fieldSubUnits
	fieldPieces
	fieldTotalPieces
	fieldUnitPrice
	fieldShelf
	fieldBarcode
	fieldExpiry
)

// headerAliases cabeceras aceptadas (ya plegadas a minúsculas y recortadas).
var headerAliases = map[string]field{
	"no":               fieldSequence,
	"divisi":           fieldCategory,
	"kategori":         fieldCategory,
	"kode divisi":      fieldDivisionCode,
	"kode barang":      fieldCode,
	"pcode":            fieldCode,
	"nama barang":      fieldName,
	"konversi tengah":  fieldSubUnitFactor,
	"konversi pcs":     fieldCartonFactor,
	"konversi kecil":   fieldCartonFactor,
	"karton":           fieldCartons,
	"tengah":           fieldSubUnits,
	"kecil":            fieldPieces,
	"pieces":           fieldPieces,
	"pcs":              fieldPieces,
	"total in pcs":     fieldTotalPieces,
	"total pcs":        fieldTotalPieces,
	"hje per karton":   fieldUnitPrice,
	"harga per karton": fieldUnitPrice,
	"hje/karton":       fieldUnitPrice,
	"rak":              fieldShelf,
	"nomor rak":        fieldShelf,
	"barcode":          fieldBarcode,
	"expired date":     fieldExpiry,
}

// Row fila de la hoja ya tipada. Los campos opcionales son punteros; nil = celda vacía o ilegible.
type Row struct {
	Line          int // número de fila en la hoja (base 1)
	Category      string
	DivisionCode  string
	Code          string
	Name          string
	SubUnitFactor *int
	CartonFactor  *int
	UnitPrice     *decimal.Decimal
	Quantity      inventory.Quantity // WH01
	TotalPieces   int                // WH02/WH03
	ShelfLabel    string
	Barcode       string
	ExpiryDate    *time.Time
}

// DetectDataStart devuelve el índice (base 0) de la primera fila de datos: primera celda
// numérica, segunda no vacía y tercera con más de 3 caracteres. Las cabeceras y la
// sub-cabecera de conversiones (Tengah/Kecil) no pasan la prueba porque su primera
// celda no es numérica; el nombre del producto no se inspecciona.
// Si no la encuentra en las primeras filas asume la fila 3 (o la 1 en hojas muy cortas).
func DetectDataStart(rows [][]string) (int, error) {
	if len(rows) < 3 {
		return 0, domain.Invalid("el archivo Excel está vacío o no es válido")
	}
	for i := 0; i < len(rows) && i < scanRows; i++ {
		row := rows[i]
		if isNumber(cell(row, 0)) && cell(row, 1) != "" && len([]rune(cell(row, 2))) > 3 {
			return i, nil
		}
	}
	if len(rows) > fallbackStart {
		return fallbackStart, nil
	}
	return 1, nil
}

// Parser convierte filas crudas en Row para un tipo de gudang.
type Parser struct {
	t       entity.WarehouseType
	columns map[field]int
}

// NewParser construye el parser a partir de la fila de cabecera (fila 0 de la hoja).
func NewParser(t entity.WarehouseType, header []string) *Parser {
	columns := make(map[field]int)
	for i, h := range header {
		if f, ok := headerAliases[foldKey(h)]; ok {
			if _, dup := columns[f]; !dup {
				columns[f] = i
			}
		}
	}
	return &Parser{t: t, columns: columns}
}

// Parse tipa una fila. WH01 con al menos 9 celdas se lee por posición; el resto por cabecera.
func (p *Parser) Parse(line int, cells []string) Row {
	if p.t.IsCarton() && len(cells) >= positionalMinCells {
		return p.parsePositional(line, cells)
	}
	return p.parseByHeader(line, cells)
}

func (p *Parser) parsePositional(line int, cells []string) Row {
	r := Row{
		Line:          line,
		Category:      cell(cells, colCategory),
		Code:          cell(cells, colCode),
		Name:          cell(cells, colName),
		SubUnitFactor: parseFactor(cell(cells, colSubUnitFactor)),
		CartonFactor:  parseFactor(cell(cells, colCartonFactor)),
		UnitPrice:     parseDecimal(cell(cells, colUnitPrice)),
		ShelfLabel:    cell(cells, colShelf),
		Barcode:       cell(cells, colBarcode),
	}
	if total := parseInt(cell(cells, colTotalPieces)); total != nil {
		r.Quantity = inventory.Breakdown(*total, r.CartonFactor, r.SubUnitFactor)
	}
	return r
}

func (p *Parser) parseByHeader(line int, cells []string) Row {
	get := func(f field) string {
		i, ok := p.columns[f]
		if !ok {
			return ""
		}
		return cell(cells, i)
	}
	r := Row{
		Line:          line,
		Category:      get(fieldCategory),
		DivisionCode:  get(fieldDivisionCode),
		Code:          get(fieldCode),
		Name:          get(fieldName),
		SubUnitFactor: parseFactor(get(fieldSubUnitFactor)),
		CartonFactor:  parseFactor(get(fieldCartonFactor)),
		UnitPrice:     parseDecimal(get(fieldUnitPrice)),
		ShelfLabel:    get(fieldShelf),
		Barcode:       get(fieldBarcode),
		ExpiryDate:    parseDate(get(fieldExpiry)),
	}
	total := parseInt(get(fieldTotalPieces))
	if !p.t.IsCarton() {
		if total != nil && *total > 0 {
			r.TotalPieces = *total
		}
		return r
	}
	cartons, subUnits, pieces := parseInt(get(fieldCartons)), parseInt(get(fieldSubUnits)), parseInt(get(fieldPieces))
	switch {
	case cartons != nil || subUnits != nil || pieces != nil:
		r.Quantity = inventory.Quantity{
			Cartons:  nonNegative(cartons),
			SubUnits: nonNegative(subUnits),
			Pieces:   nonNegative(pieces),
		}
	case total != nil:
		r.Quantity = inventory.Breakdown(*total, r.CartonFactor, r.SubUnitFactor)
	}
	return r
}

// Blank indica una fila sin contenido (se ignora sin contarla como error).
func Blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// foldKey clave de comparación sin distinguir mayúsculas.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// parseInt acepta "20", "20.0" o "1,017"; trunca decimales. nil si está vacía o no es número.
func parseInt(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

// parseFactor un factor de conversión no positivo se trata como ausente.
func parseFactor(s string) *int {
	v := parseInt(s)
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func parseDecimal(s string) *decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "2006/01/02", time.RFC3339}

// parseDate acepta un serial de Excel (45292) o una fecha en texto. nil si no se reconoce.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
