// Package persona loads the persona catalog, composes tester prompts from a
// persona and a test script, and selects which personas take part in a run.
package persona

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	qaerrors "github.com/qamaster/personaqa/internal/errors"
	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/validation"
)

// MaxPersonas is the largest number of personas a single run may use.
const MaxPersonas = 20

// Catalog is an immutable, insertion-ordered index of personas by id.
// Personas returned by Get must not be modified.
type Catalog struct {
	source string
	byID   map[string]*models.Persona
	order  []string
}

type catalogFile struct {
	Personas []models.Persona `json:"personas"`
}

// Load reads and validates the catalog at path. A missing file is a
// NotFoundError; malformed or schema-invalid content is a ParseError.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &qaerrors.NotFoundError{Resource: "persona catalog", ID: path}
		}
		return nil, err
	}

	logger.Info("Loading personas", "path", path)

	c, err := Parse(path, data)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded personas", "count", c.Len())
	return c, nil
}

// Parse builds a Catalog from catalog JSON. source names the document in
// error messages.
func Parse(source string, data []byte) (*Catalog, error) {
	if errs := validation.ValidatePersonaCatalog(data); len(errs) > 0 {
		return nil, &qaerrors.ParseError{Source: source, Message: strings.Join(errs, "; ")}
	}

	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &qaerrors.ParseError{Source: source, Message: "invalid persona catalog", Cause: err}
	}

	return New(source, doc.Personas...), nil
}

// New indexes personas in order. A repeated id keeps its first position and
// takes the later definition.
func New(source string, personas ...models.Persona) *Catalog {
	c := &Catalog{
		source: source,
		byID:   make(map[string]*models.Persona, len(personas)),
	}
	for i := range personas {
		p := personas[i]
		if p.ID == "" {
			continue
		}
		if _, exists := c.byID[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = &p
	}
	return c
}

// Source returns the path or name the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Len returns the number of personas.
func (c *Catalog) Len() int {
	return len(c.order)
}

// IDs returns the persona ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Get returns the persona with the given id.
func (c *Catalog) Get(id string) (*models.Persona, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, &qaerrors.NotFoundError{Resource: "persona", ID: id, Known: c.IDs()}
	}
	return p, nil
}

// List returns the summary view of every persona, in catalog order.
func (c *Catalog) List() []models.PersonaSummary {
	out := make([]models.PersonaSummary, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Summary())
	}
	return out
}
