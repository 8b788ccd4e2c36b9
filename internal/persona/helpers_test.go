package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeCatalog writes a catalog with n personas PERSONA_001..PERSONA_n.
func writeCatalog(t *testing.T, n int) string {
	t.Helper()

	entries := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, fmt.Sprintf(`{
			"id": "PERSONA_%03d",
			"nome": "Persona %d",
			"personalidade": "personalidade %d",
			"nivel_stress": "medio",
			"tom_comunicacao": "informal",
			"comportamentos": ["faz perguntas curtas"],
			"padroes_linguagem": ["oi", "blz"],
			"triggers_comportamento": {"inicio": "cumprimenta", "fim": "agradece"}
		}`, i, i, i))
	}

	path := filepath.Join(t.TempDir(), "personas.json")
	doc := `{"personas": [` + strings.Join(entries, ",") + `]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func loadCatalog(t *testing.T, n int) *Catalog {
	t.Helper()
	c, err := Load(writeCatalog(t, n), nil)
	require.NoError(t, err)
	return c
}
