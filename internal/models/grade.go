package models

import "math"

// Grade holds the four partial scores of a student in a subject.
// Nil partials have not been captured yet.
type Grade struct {
	ID                  int64    `json:"id"`
	IDCalificacion      int64    `json:"idCalificacion"`
	IDEstudiante        int64    `json:"idEstudiante"`
	IDGrupo             int64    `json:"idGrupo"`
	IDAsignatura        int64    `json:"idAsignatura"`
	Calificacion1       *float64 `json:"calificacion1"`
	Calificacion2       *float64 `json:"calificacion2"`
	Calificacion3       *float64 `json:"calificacion3"`
	Calificacion4       *float64 `json:"calificacion4"`
	Promedio            *float64 `json:"promedio"`
	NombreEstudiante    string   `json:"nombreEstudiante,omitempty"`
	ApellidosEstudiante string   `json:"apellidosEstudiante,omitempty"`
	NombreGrupo         string   `json:"nombreGrupo,omitempty"`
	NombreAsignatura    string   `json:"nombreAsignatura,omitempty"`
}

// Partials returns the four scores in order.
func (g Grade) Partials() [4]*float64 {
	return [4]*float64{g.Calificacion1, g.Calificacion2, g.Calificacion3, g.Calificacion4}
}

// Average is the mean of the captured partials rounded to two decimals, or nil
// when none is captured.
func Average(partials ...*float64) *float64 {
	var sum float64
	var n int
	for _, p := range partials {
		if p == nil {
			continue
		}
		sum += *p
		n++
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*100) / 100
	return &avg
}
