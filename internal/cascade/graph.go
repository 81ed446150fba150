package cascade

import (
	"fmt"
	"sort"

	"github.com/yourbasic/graph"

	"github.com/stevecrawshaw/lnrsdb/pkg/types"
)

// Execution modes. A sequential-required entity has a dependent table
// holding a composite FK into another of its dependents; the immediate FK
// check rejects deleting both inside one transaction, so each statement
// must commit on its own.
const (
	ModeAtomic     = "atomic-safe"
	ModeSequential = "sequential-required"
)

// Entry is one entity's validated declaration plus its derived execution
// mode.
type Entry struct {
	Entity     string
	Root       string
	KeyColumn  string
	Dependents []Dependent
	Mode       string
}

// Graph holds the validated entity entries, built once at startup.
type Graph struct {
	entries map[string]*Entry
}

// NewGraph builds the entity graph from the static declarations. It fails
// when the FK edges contain a cycle, a declaration names an unknown table,
// or a declared delete order would remove a referenced table's rows before
// the rows referencing them.
func NewGraph() (*Graph, error) {
	index := make(map[string]int, len(types.AllTableNames))
	for i, table := range types.AllTableNames {
		index[table] = i
	}

	g := graph.New(len(types.AllTableNames))
	for _, fk := range tableForeignKeys {
		from, ok := index[fk.From]
		if !ok {
			return nil, fmt.Errorf("foreign key from unknown table %s", fk.From)
		}
		to, ok := index[fk.To]
		if !ok {
			return nil, fmt.Errorf("foreign key into unknown table %s", fk.To)
		}
		g.Add(from, to)
	}
	if !graph.Acyclic(g) {
		return nil, fmt.Errorf("table foreign keys form a cycle")
	}

	entries := make(map[string]*Entry, len(entityDecls))
	for _, decl := range entityDecls {
		if err := validateDecl(decl, index); err != nil {
			return nil, fmt.Errorf("entity %s: %w", decl.entity, err)
		}
		entries[decl.entity] = &Entry{
			Entity:     decl.entity,
			Root:       decl.root,
			KeyColumn:  decl.keyColumn,
			Dependents: decl.dependents,
			Mode:       classify(decl),
		}
	}
	return &Graph{entries: entries}, nil
}

// validateDecl checks one entity declaration against the FK metadata: every
// named table must exist, each dependent must reference something in the
// entity's cascade set, and the declared order must delete referencing
// tables before the tables they reference.
func validateDecl(decl entityDecl, tableIndex map[string]int) error {
	if _, ok := tableIndex[decl.root]; !ok {
		return fmt.Errorf("unknown root table %s", decl.root)
	}

	// Position of each cascade table in delete order, root last.
	position := make(map[string]int, len(decl.dependents)+1)
	for i, dep := range decl.dependents {
		if _, ok := tableIndex[dep.Table]; !ok {
			return fmt.Errorf("unknown dependent table %s", dep.Table)
		}
		if _, dup := position[dep.Table]; dup {
			return fmt.Errorf("dependent table %s declared twice", dep.Table)
		}
		position[dep.Table] = i
	}
	position[decl.root] = len(decl.dependents)

	for _, dep := range decl.dependents {
		if !referencesSet(dep.Table, position) {
			return fmt.Errorf("dependent table %s holds no foreign key into the cascade set", dep.Table)
		}
	}

	for _, fk := range tableForeignKeys {
		from, inFrom := position[fk.From]
		to, inTo := position[fk.To]
		if inFrom && inTo && from > to {
			return fmt.Errorf("%s is deleted after %s but references it", fk.From, fk.To)
		}
	}
	return nil
}

// referencesSet reports whether a table holds at least one FK into the
// given cascade set.
func referencesSet(table string, set map[string]int) bool {
	for _, fk := range tableForeignKeys {
		if fk.From != table {
			continue
		}
		if _, ok := set[fk.To]; ok {
			return true
		}
	}
	return false
}

// classify derives the entity's execution mode: sequential-required iff one
// dependent holds a composite FK into another dependent of the same entity.
func classify(decl entityDecl) string {
	dependents := make(map[string]bool, len(decl.dependents))
	for _, dep := range decl.dependents {
		dependents[dep.Table] = true
	}
	for _, fk := range tableForeignKeys {
		if len(fk.Columns) > 1 && dependents[fk.From] && dependents[fk.To] {
			return ModeSequential
		}
	}
	return ModeAtomic
}

// Entry returns the entry for an entity tag, or types.ErrUnknownEntity.
func (g *Graph) Entry(entity string) (*Entry, error) {
	e, ok := g.entries[entity]
	if !ok {
		return nil, fmt.Errorf("%s: %w", entity, types.ErrUnknownEntity)
	}
	return e, nil
}

// Entities returns the known entity tags, sorted.
func (g *Graph) Entities() []string {
	names := make([]string, 0, len(g.entries))
	for name := range g.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
