package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliafides/backend/internal/model/chat"
)

func replyFields() map[string]any {
	return map[string]any{
		"saudacao":             "Olá, Eduardo! Que bom falar com você.",
		"texto_biblico":        "Lancem sobre ele toda a sua ansiedade, porque ele tem cuidado de vocês.",
		"referencia":           "1 Pedro 5:7",
		"explicacao":           "O verbo grego epiriptō indica um lançar decisivo.",
		"sentimento_detectado": "ansiedade",
		"referencia_api": map[string]any{
			"livro_abrev": "1pe",
			"capitulo":    5,
			"versiculo":   7,
		},
	}
}

func marshalReply(t *testing.T, fields map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return string(raw)
}

func TestParseResponseKeepsFieldsExactly(t *testing.T) {
	fields := replyFields()

	answer, err := ParseResponse(marshalReply(t, fields))
	require.NoError(t, err)

	assert.Equal(t, chat.BibleResponse{
		Greeting:     fields["saudacao"].(string),
		VerseText:    fields["texto_biblico"].(string),
		Reference:    fields["referencia"].(string),
		Explanation:  fields["explicacao"].(string),
		Sentiment:    fields["sentimento_detectado"].(string),
		ReferenceAPI: &chat.VerseRef{BookAbbrev: "1pe", Chapter: 5, Verse: 7},
	}, answer)
}

func TestParseResponseRejectsMissingFields(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			fields := replyFields()
			delete(fields, field)

			answer, err := ParseResponse(marshalReply(t, fields))
			require.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, chat.BibleResponse{}, answer)
		})
	}
}

func TestParseResponseRejectsBadReference(t *testing.T) {
	fields := replyFields()
	fields["referencia_api"] = map[string]any{"livro_abrev": "sl", "capitulo": 0, "versiculo": 1}

	_, err := ParseResponse(marshalReply(t, fields))
	require.ErrorIs(t, err, ErrMalformedResponse)
	require.ErrorIs(t, err, chat.ErrInvalidAnswer)
}

func TestParseResponseRejectsWrongTypes(t *testing.T) {
	fields := replyFields()
	fields["referencia_api"] = map[string]any{"livro_abrev": "sl", "capitulo": "vinte e três", "versiculo": 1}

	_, err := ParseResponse(marshalReply(t, fields))
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseResponseToleratesCodeFence(t *testing.T) {
	raw := "```json\n" + marshalReply(t, replyFields()) + "\n```"

	answer, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "1 Pedro 5:7", answer.Reference)
}

func TestParseResponseRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{"", "Desculpe, não posso ajudar.", "{ \"saudacao\": "} {
		_, err := ParseResponse(raw)
		require.ErrorIs(t, err, ErrMalformedResponse, "input %q", raw)
	}
}
