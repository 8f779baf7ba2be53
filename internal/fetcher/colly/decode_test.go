package collyfetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUTF8KeepsValidUTF8(t *testing.T) {
	t.Parallel()

	body := []byte("<p>£51.77 · Poésie</p>")
	got, err := toUTF8(body, "text/html")
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestToUTF8DecodesLatin1(t *testing.T) {
	t.Parallel()

	sentence := "Le caf\xe9 de la rue \xe9tait ferm\xe9 apr\xe9s un r\xe9sum\xe9 d\xe9taill\xe9 de la soir\xe9e. "
	body := []byte("<html><head><title>Caf\xe9</title></head><body><p>" +
		strings.Repeat(sentence, 8) + "</p></body></html>")

	got, err := toUTF8(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Contains(t, string(got), "Le café de la rue était fermé")
	assert.NotContains(t, string(got), "�")
}

func TestToUTF8Empty(t *testing.T) {
	t.Parallel()

	got, err := toUTF8(nil, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
