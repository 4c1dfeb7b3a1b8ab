package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReplyValid(t *testing.T) {
	result, err := ParseReply(`{"note": 14.5, "commentaire": "Bon travail", "points_forts": ["clair"], "points_amelioration": ["détails"]}`)
	require.NoError(t, err)
	require.Equal(t, 14.5, result.Note)
	require.Equal(t, "Bon travail", result.Commentaire)
	require.Equal(t, []string{"clair"}, result.PointsForts)
}

func TestParseReplyMissingRequiredFields(t *testing.T) {
	_, err := ParseReply(`{"note": 12}`)
	require.ErrorIs(t, err, ErrMalformedReply)

	_, err = ParseReply(`{"commentaire": "sans note"}`)
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseReplyNonNumericNote(t *testing.T) {
	_, err := ParseReply(`{"note": "quinze", "commentaire": "Bon"}`)
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseReplyNotJSON(t *testing.T) {
	_, err := ParseReply("La note est 15/20.")
	require.ErrorIs(t, err, ErrMalformedReply)
}

func TestClampNote(t *testing.T) {
	require.Equal(t, 20.0, ClampNote(25))
	require.Equal(t, 0.0, ClampNote(-3))
	require.Equal(t, 14.5, ClampNote(14.3))
	require.Equal(t, 14.0, ClampNote(14.2))
	require.Equal(t, 17.5, ClampNote(17.5))
}

func TestBuildPromptEmbedsBothTexts(t *testing.T) {
	prompt := BuildPrompt(EvaluationInput{
		StudentAnswer:    "SELECT * FROM t;",
		ReferenceContent: "SELECT id FROM t;",
	})

	require.True(t, strings.Contains(prompt, "SELECT * FROM t;"))
	require.True(t, strings.Contains(prompt, "SELECT id FROM t;"))
	require.True(t, strings.Contains(prompt, `"note"`))
	require.True(t, strings.Contains(prompt, `"commentaire"`))
}
