package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Schema is the coarse entity classification.
type Schema string

const (
	SchemaPerson       Schema = "Person"
	SchemaOrganization Schema = "Organization"
)

// Entity is the canonical record for one listed person or organization.
type Entity struct {
	ID     string `json:"id"`
	Schema Schema `json:"schema"`
	Name   string `json:"name"`
	Notes  string `json:"notes,omitempty"`
}

// GraphEntity is the property-graph encoding of an Entity: every property
// holds a list of values.
type GraphEntity struct {
	ID         string          `json:"id"`
	Schema     Schema          `json:"schema"`
	Properties GraphProperties `json:"properties"`
}

// GraphProperties are the multi-valued properties of a GraphEntity.
type GraphProperties struct {
	Name  []string `json:"name"`
	Notes []string `json:"notes,omitempty"`
}

// Graph converts e to its property-graph form.
func (e Entity) Graph() GraphEntity {
	g := GraphEntity{
		ID:         e.ID,
		Schema:     e.Schema,
		Properties: GraphProperties{Name: []string{e.Name}},
	}
	if e.Notes != "" {
		g.Properties.Notes = []string{e.Notes}
	}
	return g
}

// Flat converts a graph entity back to the simple form, taking the first
// value of each property.
func (g GraphEntity) Flat() Entity {
	e := Entity{ID: g.ID, Schema: g.Schema}
	if len(g.Properties.Name) > 0 {
		e.Name = g.Properties.Name[0]
	}
	if len(g.Properties.Notes) > 0 {
		e.Notes = g.Properties.Notes[0]
	}
	return e
}

// Shape selects how entities are encoded on output.
type Shape string

const (
	ShapeSimple Shape = "simple"
	ShapeGraph  Shape = "graph"
)

// ParseShape validates an output shape name. Empty means ShapeSimple.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeSimple:
		return ShapeSimple, nil
	case ShapeGraph:
		return ShapeGraph, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want simple or graph)", s)
	}
}

// Encode returns the value to serialize for e in this shape.
func (s Shape) Encode(e Entity) any {
	if s == ShapeGraph {
		return e.Graph()
	}
	return e
}

// IDFunc derives an entity id from the row's position in its source and the
// resolved name. It must be deterministic.
type IDFunc func(index int, name string) string

// entityNamespace scopes the name-based UUIDs minted by DeterministicID.
var entityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/JonMunkholm/sanctions/entity"))

// DeterministicID returns a version 5 UUID over ("row", index, name).
func DeterministicID(index int, name string) string {
	key := "row\x00" + strconv.Itoa(index) + "\x00" + name
	return uuid.NewSHA1(entityNamespace, []byte(key)).String()
}

// Builder turns normalized rows into entities.
type Builder struct {
	ID IDFunc
}

// NewBuilder returns a Builder using DeterministicID.
func NewBuilder() *Builder {
	return &Builder{ID: DeterministicID}
}

// Build returns the entity for row, where index is the row's zero-based
// position among all data rows of the source. ok is false when the row has
// no name and must be skipped.
func (b *Builder) Build(row NormalizedRow, index int) (e Entity, ok bool) {
	if row.Name == "" {
		return Entity{}, false
	}

	idFunc := b.ID
	if idFunc == nil {
		idFunc = DeterministicID
	}

	return Entity{
		ID:     idFunc(index, row.Name),
		Schema: Classify(row.SDNType),
		Name:   row.Name,
		Notes:  JoinNotes(row.Program, row.Remarks),
	}, true
}

// Classify returns SchemaPerson when the type text mentions "individual"
// anywhere ("Individual (deceased)" included), SchemaOrganization otherwise.
func Classify(sdnType string) Schema {
	if strings.Contains(strings.ToLower(sdnType), "individual") {
		return SchemaPerson
	}
	return SchemaOrganization
}

// JoinNotes builds the notes text: "Program: {program}" then the remarks,
// joined with "; ". Empty parts are left out; both empty gives "".
func JoinNotes(program, remarks string) string {
	var parts []string
	if program != "" {
		parts = append(parts, "Program: "+program)
	}
	if remarks != "" {
		parts = append(parts, remarks)
	}
	return strings.Join(parts, "; ")
}
