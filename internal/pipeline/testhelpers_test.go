package pipeline

import (
	"errors"

	"github.com/sells-group/visibility-cli/internal/model"
)

var errStage = errors.New("stage exploded")

func testContext() model.PipelineContext {
	return model.PipelineContext{
		BrandInfo: model.BrandInfo{
			Name: "Kids&Us", Domain: "kidsandus.es", Sector: "academias de inglés", Language: "es", Country: "ES",
		},
		Brands: []model.Brand{
			{Name: "Kids&Us", Domain: "kidsandus.es"},
			{Name: "EF Education First", ShortName: "EF", Domain: "ef.com", IsCompetitor: true},
			{Name: "Helen Doron", Domain: "helendoron.es", IsCompetitor: true},
		},
		Personas: []model.Persona{{Name: "Padres", Description: "Padres de niños de 3 a 12 años"}},
		Funnel: []model.FunnelStage{
			{Name: "descubrimiento", Description: "Buscan opciones"},
			{Name: "decisión", Description: "Eligen academia"},
		},
		SeedKeywords: []string{"academia inglés niños"},
	}
}

const wizardExport = `{
  "brandInfo": {"name": "Kids&Us", "domain": "kidsandus.es", "sector": "academias", "language": "es"},
  "personas": {"items": [{"name": "Padres", "description": "Padres"}]}
}`
