package ingest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/inventory"
)

// Plantilla WH01: cabecera, sub-cabecera de conversiones y datos desde la fila 3.
var wh01Sheet = [][]string{
	{"No", "Kategori", "Kode Barang", "Nama Barang", "Konversi", "", "HJE per Karton", "Stock Karton", "Total in Pcs", "Rak", "Barcode"},
	{"", "", "", "", "Tengah", "Kecil", "", "", "", "", ""},
	{"1", "BISCUIT", "BSK001", "Biskuit Kelapa", "5", "20", "150,000", "5.35", "107", "A1", "8991001"},
	{"2", "biscuit", "WFR002", "Wafer Coklat", "6", "24", "", "3", "72", "", ""},
}

// ──────────────────────────────────────────────────────────────────────────────
// DetectDataStart
// ──────────────────────────────────────────────────────────────────────────────

func TestDetectDataStart_SaltaCabeceras(t *testing.T) {
	start, err := ingest.DetectDataStart(wh01Sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, start)
}

func TestDetectDataStart_NombreConPalabraDeSubCabecera(t *testing.T) {
	rows := [][]string{
		wh01Sheet[0],
		{"1", "BISCUIT", "BSK001", "Biskuit Kecil", "5", "20", "", "", "10", "", ""},
		{"2", "BISCUIT", "BSK002", "Wafer Tengah", "5", "20", "", "", "10", "", ""},
	}
	start, err := ingest.DetectDataStart(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, start, "el nombre del producto no convierte la fila en sub-cabecera")

	// Layout por cabecera: el nombre cae en la tercera celda.
	rows = [][]string{
		{"No", "PCODE", "Nama Barang", "Kategori", "Total Pcs"},
		{"1", "BSK004", "Konversi Kecil", "BISCUIT", "10"},
		{"2", "BSK005", "Biskuit Lama", "BISCUIT", "4"},
	}
	start, err = ingest.DetectDataStart(rows)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
}

func TestDetectDataStart_HojaCorta_Invalida(t *testing.T) {
	_, err := ingest.DetectDataStart([][]string{{"No"}, {"1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDetectDataStart_SinFilaReconocible_UsaFallback(t *testing.T) {
	rows := [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}
	start, err := ingest.DetectDataStart(rows)
	require.NoError(t, err)
	assert.Equal(t, 3, start)

	start, err = ingest.DetectDataStart(rows[:3])
	require.NoError(t, err)
	assert.Equal(t, 1, start)
}

// ──────────────────────────────────────────────────────────────────────────────
// Parse
// ──────────────────────────────────────────────────────────────────────────────

func TestParse_WH01Posicional_DescomponeTotal(t *testing.T) {
	p := ingest.NewParser(entity.WarehouseWH01, wh01Sheet[0])
	row := p.Parse(3, wh01Sheet[2])

	assert.Equal(t, 3, row.Line)
	assert.Equal(t, "BISCUIT", row.Category)
	assert.Equal(t, "BSK001", row.Code)
	assert.Equal(t, "Biskuit Kelapa", row.Name)
	require.NotNil(t, row.SubUnitFactor)
	require.NotNil(t, row.CartonFactor)
	assert.Equal(t, 5, *row.SubUnitFactor)
	assert.Equal(t, 20, *row.CartonFactor)
	require.NotNil(t, row.UnitPrice)
	assert.Equal(t, "150000", row.UnitPrice.String())
	assert.Equal(t, inventory.Quantity{Cartons: 5, SubUnits: 1, Pieces: 2}, row.Quantity)
	assert.Equal(t, "A1", row.ShelfLabel)
	assert.Equal(t, "8991001", row.Barcode)
}

func TestParse_WH01SinFactores_CantidadesEnCero(t *testing.T) {
	p := ingest.NewParser(entity.WarehouseWH01, wh01Sheet[0])
	row := p.Parse(5, []string{"3", "CANDY", "CDY003", "Permen Mint", "", "0", "", "", "50", "", ""})
	assert.Nil(t, row.SubUnitFactor)
	assert.Nil(t, row.CartonFactor, "factor no positivo se trata como ausente")
	assert.Equal(t, inventory.Quantity{}, row.Quantity)
}

func TestParse_WH01PorCabecera_ColumnasDirectas(t *testing.T) {
	header := []string{"Kode Barang", "Nama Barang", "Divisi", "Karton", "Tengah", "Pieces", "Expired Date", "Nomor Rak"}
	p := ingest.NewParser(entity.WarehouseWH01, header)
	row := p.Parse(4, []string{"BSK001", "Biskuit Kelapa", "BISCUIT", "2", "", "-3", "2025-01-31"})

	assert.Equal(t, inventory.Quantity{Cartons: 2, SubUnits: 0, Pieces: 0}, row.Quantity)
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *row.ExpiryDate)
	assert.Equal(t, "", row.ShelfLabel, "celda ausente")
}

func TestParse_WH02PorCabecera(t *testing.T) {
	header := []string{"No", "PCODE", "Nama Barang", "Kategori", "Total Pcs"}
	p := ingest.NewParser(entity.WarehouseWH02, header)

	row := p.Parse(2, []string{"1", "BSK004", "Biskuit Remuk", "BISCUIT", "1,017"})
	assert.Equal(t, "BSK004", row.Code)
	assert.Equal(t, 1017, row.TotalPieces)
	assert.Equal(t, inventory.Quantity{}, row.Quantity)

	row = p.Parse(3, []string{"2", "BSK005", "Biskuit Lama", "BISCUIT", "-4"})
	assert.Equal(t, 0, row.TotalPieces, "total negativo se ingiere en cero")
}

func TestParse_FechaSerialExcel(t *testing.T) {
	p := ingest.NewParser(entity.WarehouseWH03, []string{"PCODE", "Nama Barang", "Expired Date"})
	row := p.Parse(2, []string{"X1", "Uno", "45292"})
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *row.ExpiryDate)

	row = p.Parse(3, []string{"X2", "Dos", "mañana"})
	assert.Nil(t, row.ExpiryDate)
}

func TestBlank(t *testing.T) {
	assert.True(t, ingest.Blank(nil))
	assert.True(t, ingest.Blank([]string{"", "  ", "\t"}))
	assert.False(t, ingest.Blank([]string{"", "x"}))
}
