package ingest

import (
	"context"
	"fmt"

	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// resolver resuelve categoría → división y etiqueta → rak con caché por carga.
type resolver struct {
	r            repository.Repositories
	divisionName map[string]string
	divisionCode map[string]string
	shelves      map[string]string
}

func newResolver(ctx context.Context, r repository.Repositories) (*resolver, error) {
	divisions, err := r.Divisions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar divisiones: %w", err)
	}
	shelves, err := r.Shelves.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar raks: %w", err)
	}
	res := &resolver{
		r:            r,
		divisionName: make(map[string]string, len(divisions)),
		divisionCode: make(map[string]string, len(divisions)),
		shelves:      make(map[string]string, len(shelves)),
	}
	for _, d := range divisions {
		res.divisionName[foldKey(d.Name)] = d.ID
		res.divisionCode[foldKey(d.Code)] = d.ID
	}
	for _, s := range shelves {
		res.shelves[foldKey(s.Label)] = s.ID
	}
	return res, nil
}

// division busca la categoría primero por nombre y luego por código de división;
// sin categoría usa la columna heredada "kode divisi".
func (res *resolver) division(row Row) (id string, msg string) {
	switch {
	case row.Category != "":
		key := foldKey(row.Category)
		if id, ok := res.divisionName[key]; ok {
			return id, ""
		}
		if id, ok := res.divisionCode[key]; ok {
			return id, ""
		}
		return "", fmt.Sprintf("división/categoría %q no encontrada", row.Category)
	case row.DivisionCode != "":
		if id, ok := res.divisionCode[foldKey(row.DivisionCode)]; ok {
			return id, ""
		}
		return "", fmt.Sprintf("código de división %q no encontrado", row.DivisionCode)
	}
	return "", "sin categoría ni código de división"
}

// shelf devuelve el ID del rak, creándolo si no existe. Etiqueta vacía → sin rak.
func (res *resolver) shelf(ctx context.Context, label string) (*string, error) {
	if label == "" {
		return nil, nil
	}
	key := foldKey(label)
	if id, ok := res.shelves[key]; ok {
		return &id, nil
	}
	id, err := res.r.Shelves.EnsureByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	res.shelves[key] = id
	return &id, nil
}
