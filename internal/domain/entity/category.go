package entity

// Division agrupa productos (la "kategori" del Excel: BISCUIT, CANDY...) y delimita
// el alcance de cada asignación de opname.
type Division struct {
	ID   string
	Code string // kode_divisi
	Name string // nama_divisi
}

// Shelf es un rak físico; se crea al vuelo durante la ingesta si no existe.
type Shelf struct {
	ID    string
	Label string // nomor_rak
}
