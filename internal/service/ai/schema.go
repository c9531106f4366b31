package ai

import "google.golang.org/genai"

// RequiredFields lists the top-level keys every answer must carry.
var RequiredFields = []string{
	"saudacao",
	"texto_biblico",
	"referencia",
	"explicacao",
	"sentimento_detectado",
	"referencia_api",
}

// ResponseSchema declares the answer shape for schema-constrained generation.
func ResponseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	integer := func() *genai.Schema { return &genai.Schema{Type: genai.TypeInteger} }

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"saudacao":             str(),
			"texto_biblico":        str(),
			"referencia":           str(),
			"explicacao":           str(),
			"sentimento_detectado": str(),
			"referencia_api": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"livro_abrev": str(),
					"capitulo":    integer(),
					"versiculo":   integer(),
				},
				Required:         []string{"livro_abrev", "capitulo", "versiculo"},
				PropertyOrdering: []string{"livro_abrev", "capitulo", "versiculo"},
			},
		},
		Required:         RequiredFields,
		PropertyOrdering: RequiredFields,
	}
}
