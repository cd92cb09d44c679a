// Package query composes the Query Surface (§4.6) over the Store's
// exported methods. It holds no SQL of its own beyond call_graph's
// composition of FindDefinition and ReferencesByContainer.
package query

import (
	"context"
	"sort"

	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/store"
)

// Options narrows a lookup by kind/language and caps result count.
type Options struct {
	Kind     string
	Language string
	Limit    int
}

// Surface is the read-only query API the CLI and any future embedder use.
type Surface struct {
	store *store.Store
}

// New wraps store behind the Query Surface.
func New(s *store.Store) *Surface {
	return &Surface{store: s}
}

func (o Options) toFindOptions() store.FindOptions {
	return store.FindOptions{Kind: o.Kind, Language: o.Language, Limit: o.Limit}
}

// FindByName returns symbols matching name exactly.
func (q *Surface) FindByName(ctx context.Context, name string, opts Options) ([]domain.Symbol, error) {
	return q.store.FindByName(ctx, name, opts.toFindOptions())
}

// FindByQualifiedName returns symbols matching a fully qualified name.
func (q *Surface) FindByQualifiedName(ctx context.Context, qname string) ([]domain.Symbol, error) {
	return q.store.FindByQualifiedName(ctx, qname)
}

// FindDefinition resolves a name or qualified name to its definition, if any.
func (q *Surface) FindDefinition(ctx context.Context, nameOrQName string) (*domain.Symbol, error) {
	return q.store.FindDefinition(ctx, nameOrQName)
}

// FindReferences resolves a name or qualified name to its usage sites.
func (q *Surface) FindReferences(ctx context.Context, nameOrQName string, opts Options) ([]domain.Reference, error) {
	return q.store.FindReferences(ctx, nameOrQName, opts.toFindOptions())
}

// Search performs a ranked substring search over symbol names.
func (q *Surface) Search(ctx context.Context, pattern string, opts Options) ([]domain.Symbol, error) {
	return q.store.Search(ctx, pattern, opts.toFindOptions())
}

// SymbolsInFile lists every symbol defined in path.
func (q *Surface) SymbolsInFile(ctx context.Context, path string) ([]domain.Symbol, error) {
	return q.store.SymbolsInFile(ctx, path)
}

// ReferencesInFile lists every reference recorded for path.
func (q *Surface) ReferencesInFile(ctx context.Context, path string) ([]domain.Reference, error) {
	return q.store.ReferencesInFile(ctx, path)
}

// SymbolAt returns the innermost symbol enclosing (line, col) in path.
func (q *Surface) SymbolAt(ctx context.Context, path string, line, col int) (*domain.Symbol, error) {
	return q.store.SymbolAt(ctx, path, line, col)
}

// Stats reports index-wide counters.
func (q *Surface) Stats(ctx context.Context) (store.Stats, error) {
	return q.store.Stats(ctx)
}

// CallGraph describes a name's callers and callees (§4.6).
type CallGraph struct {
	Name     string          `json:"name"`
	Symbol   *domain.Symbol  `json:"symbol,omitempty"`
	Callers  []CallGraphEdge `json:"callers"`
	Callees  []CallGraphEdge `json:"callees"`
}

// CallGraphEdge names one side of a call relationship.
type CallGraphEdge struct {
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

var callKindNames = func() []string {
	names := make([]string, 0, len(domain.CallKinds))
	for k := range domain.CallKinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}()

// CallGraph resolves name's definition, then gathers its callers (call
// sites whose target resolves to name, read off their container) and
// callees (call sites contained within name's own definition span).
func (q *Surface) CallGraph(ctx context.Context, name string) (CallGraph, error) {
	graph := CallGraph{Name: name}

	def, err := q.store.FindDefinition(ctx, name)
	if err != nil {
		return CallGraph{}, err
	}
	graph.Symbol = def

	callSites, err := q.store.ReferencesByNameWithContainer(ctx, name, callKindNames)
	if err != nil {
		return CallGraph{}, err
	}
	for _, ref := range callSites {
		if ref.ContainerID == nil {
			continue
		}
		container, err := q.store.SymbolByID(ctx, *ref.ContainerID)
		if err != nil {
			return CallGraph{}, err
		}
		if container == nil {
			continue
		}
		graph.Callers = append(graph.Callers, CallGraphEdge{
			Name:     container.QualifiedName,
			FilePath: ref.FilePath,
			Line:     ref.Line,
		})
	}

	if def != nil {
		callees, err := q.store.ReferencesByContainer(ctx, def.ID, callKindNames)
		if err != nil {
			return CallGraph{}, err
		}
		for _, ref := range callees {
			graph.Callees = append(graph.Callees, CallGraphEdge{
				Name:     ref.ResolvedQualifiedName(),
				FilePath: ref.FilePath,
				Line:     ref.Line,
			})
		}
	}

	return graph, nil
}
