package models

// Cycle is an academic period bounded by two calendar dates (YYYY-MM-DD).
type Cycle struct {
	ID          int64  `json:"id"`
	IDCiclo     int64  `json:"idCiclo"`
	Nombre      string `json:"nombre"`
	FechaInicio string `json:"fechaInicio"`
	FechaFin    string `json:"fechaFin"`
}
