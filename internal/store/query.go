package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/errs"
)

// FindOptions narrows find_by_name / find_references results (§4.6).
type FindOptions struct {
	Kind     string
	Language string
	Limit    int
}

// FindByName returns symbols with an exact name match, ordered by
// (file_path asc, start_line asc).
func (s *Store) FindByName(ctx context.Context, name string, opts FindOptions) ([]domain.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM code_symbols WHERE name = ?`
	args := []interface{}{name}
	query, args = appendKindLanguage(query, args, opts.Kind, opts.Language, "")
	query += ` ORDER BY file_path ASC, start_line ASC`
	query, args = appendLimit(query, args, opts.Limit)

	return s.querySymbols(ctx, query, args...)
}

// FindByQualifiedName returns symbols with an exact qualified_name match.
func (s *Store) FindByQualifiedName(ctx context.Context, qname string) ([]domain.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM code_symbols WHERE qualified_name = ? ORDER BY file_path ASC, start_line ASC`
	return s.querySymbols(ctx, query, qname)
}

// FindDefinition returns the first definition-kind symbol whose name or
// qualified_name equals x, ordered by file_path asc. Returns nil, nil if
// there is no match.
func (s *Store) FindDefinition(ctx context.Context, x string) (*domain.Symbol, error) {
	query := `
		SELECT ` + symbolColumns + ` FROM code_symbols
		WHERE kind IN ('function','class','module','method','macro')
		  AND (name = ? OR qualified_name = ?)
		ORDER BY file_path ASC
		LIMIT 1
	`
	rows, err := s.querySymbols(ctx, query, x, x)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// FindReferences returns references whose name or qualified_name equals
// nameOrQName, ordered by (file_path asc, line asc).
func (s *Store) FindReferences(ctx context.Context, nameOrQName string, opts FindOptions) ([]domain.Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM symbol_references WHERE (name = ? OR qualified_name = ?)`
	args := []interface{}{nameOrQName, nameOrQName}
	query, args = appendKindLanguage(query, args, opts.Kind, opts.Language, "")
	query += ` ORDER BY file_path ASC, line ASC`
	query, args = appendLimit(query, args, opts.Limit)

	return s.queryReferences(ctx, query, args...)
}

// Search performs a case-insensitive substring match on name or
// qualified_name, ranked exact-name match first, then name-prefix match,
// then name asc. Limit defaults to 50.
func (s *Store) Search(ctx context.Context, pattern string, opts FindOptions) ([]domain.Symbol, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	like := "%" + pattern + "%"
	prefixLike := pattern + "%"

	query := `
		SELECT ` + symbolColumns + ` FROM code_symbols
		WHERE (name LIKE ? COLLATE NOCASE OR qualified_name LIKE ? COLLATE NOCASE)
	`
	args := []interface{}{like, like}
	query, args = appendKindLanguage(query, args, opts.Kind, opts.Language, "")
	query += `
		ORDER BY
			CASE WHEN name = ? COLLATE NOCASE THEN 0
			     WHEN name LIKE ? COLLATE NOCASE THEN 1
			     ELSE 2 END,
			name ASC
		LIMIT ?
	`
	args = append(args, pattern, prefixLike, limit)

	return s.querySymbols(ctx, query, args...)
}

// SymbolsInFile returns every symbol for path, ordered by position.
func (s *Store) SymbolsInFile(ctx context.Context, path string) ([]domain.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM code_symbols WHERE file_path = ? ORDER BY start_line ASC, start_col ASC`
	return s.querySymbols(ctx, query, path)
}

// ReferencesInFile returns every reference for path, ordered by position.
func (s *Store) ReferencesInFile(ctx context.Context, path string) ([]domain.Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM symbol_references WHERE file_path = ? ORDER BY line ASC, col ASC`
	return s.queryReferences(ctx, query, path)
}

// ReferencesByContainer returns references contained within the symbol
// identified by containerID, restricted to call/qualified_call kinds;
// used to compute call_graph callees.
func (s *Store) ReferencesByContainer(ctx context.Context, containerID int64, kinds []string) ([]domain.Reference, error) {
	placeholders := make([]string, len(kinds))
	args := []interface{}{containerID}
	for i, k := range kinds {
		placeholders[i] = "?"
		args = append(args, k)
	}
	query := fmt.Sprintf(`SELECT %s FROM symbol_references WHERE container_id = ? AND kind IN (%s) ORDER BY file_path ASC, line ASC`,
		referenceColumns, strings.Join(placeholders, ","))
	return s.queryReferences(ctx, query, args...)
}

// ReferencesByNameWithContainer is like FindReferences but restricted to
// call/qualified_call kinds and returns the owning container's id so
// call_graph can resolve each caller's enclosing symbol.
func (s *Store) ReferencesByNameWithContainer(ctx context.Context, nameOrQName string, kinds []string) ([]domain.Reference, error) {
	placeholders := make([]string, len(kinds))
	args := []interface{}{nameOrQName, nameOrQName}
	for i, k := range kinds {
		placeholders[i] = "?"
		args = append(args, k)
	}
	query := fmt.Sprintf(`
		SELECT %s FROM symbol_references
		WHERE (name = ? OR qualified_name = ?) AND kind IN (%s)
		ORDER BY file_path ASC, line ASC
	`, referenceColumns, strings.Join(placeholders, ","))
	return s.queryReferences(ctx, query, args...)
}

// SymbolByID returns the symbol with the given id, used to resolve a
// reference's container_id into a qualified name for call_graph.
func (s *Store) SymbolByID(ctx context.Context, id int64) (*domain.Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM code_symbols WHERE id = ?`
	rows, err := s.querySymbols(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SymbolAt returns the innermost symbol whose range covers (line, col);
// tie-broken by latest start_line. Per §9's documented mixed comparison, a
// column equal to start_col is inside the symbol and a column equal to
// end_col is not (col < start_col and col >= end_col both exclude).
func (s *Store) SymbolAt(ctx context.Context, path string, line, col int) (*domain.Symbol, error) {
	query := `
		SELECT ` + symbolColumns + ` FROM code_symbols
		WHERE file_path = ?
		  AND start_line <= ? AND end_line >= ?
		ORDER BY start_line DESC, (end_line - start_line) ASC, (end_col - start_col) ASC
	`
	rows, err := s.querySymbols(ctx, query, path, line, line)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		sym := &rows[i]
		if sym.StartLine == line && col < sym.StartCol {
			continue
		}
		if sym.EndLine == line && col >= sym.EndCol {
			continue
		}
		return sym, nil
	}
	return nil, nil
}

// Stats summarizes the index: total symbols, total references, distinct
// indexed files, and a per-kind symbol breakdown.
type Stats struct {
	TotalSymbols    int
	TotalReferences int
	IndexedFiles    int
	SymbolsByKind   map[string]int
}

// Stats computes index-wide counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	out.SymbolsByKind = make(map[string]int)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_symbols`).Scan(&out.TotalSymbols); err != nil {
		return Stats{}, errs.New(errs.KindStore, "stats", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbol_references`).Scan(&out.TotalReferences); err != nil {
		return Stats{}, errs.New(errs.KindStore, "stats", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT file_path) FROM code_symbols`).Scan(&out.IndexedFiles); err != nil {
		return Stats{}, errs.New(errs.KindStore, "stats", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM code_symbols GROUP BY kind`)
	if err != nil {
		return Stats{}, errs.New(errs.KindStore, "stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return Stats{}, errs.New(errs.KindStore, "stats", err)
		}
		out.SymbolsByKind[kind] = count
	}
	return out, rows.Err()
}

const symbolColumns = `id, file_path, name, qualified_name, kind, language, visibility,
	start_line, start_col, end_line, end_col, signature, doc, metadata,
	file_hash, indexed_at, parent_id`

const referenceColumns = `id, file_path, name, qualified_name, kind, language, line, col,
	end_line, end_col, target_module, metadata, file_hash, symbol_id, container_id`

func (s *Store) querySymbols(ctx context.Context, query string, args ...interface{}) ([]domain.Symbol, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.KindStore, "query_symbols", err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, errs.New(errs.KindStore, "query_symbols", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *Store) queryReferences(ctx context.Context, query string, args ...interface{}) ([]domain.Reference, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.New(errs.KindStore, "query_references", err)
	}
	defer rows.Close()

	var out []domain.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, errs.New(errs.KindStore, "query_references", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func scanSymbol(rows *sql.Rows) (domain.Symbol, error) {
	var sym domain.Symbol
	var kind, language, visibility string
	var signature, doc sql.NullString
	var metadataJSON string
	var indexedAt string
	var parentID sql.NullInt64

	err := rows.Scan(
		&sym.ID, &sym.FilePath, &sym.Name, &sym.QualifiedName, &kind, &language, &visibility,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol, &signature, &doc, &metadataJSON,
		&sym.FileHash, &indexedAt, &parentID,
	)
	if err != nil {
		return domain.Symbol{}, err
	}

	sym.Kind = domain.SymbolKind(kind)
	sym.Language = domain.Language(language)
	sym.Visibility = domain.Visibility(visibility)
	sym.Signature = signature.String
	sym.Doc = doc.String
	if parentID.Valid {
		id := parentID.Int64
		sym.ParentID = &id
	}
	if t, err := time.Parse(time.RFC3339Nano, indexedAt); err == nil {
		sym.IndexedAt = t
	}
	sym.Metadata = map[string]string{}
	_ = json.Unmarshal([]byte(metadataJSON), &sym.Metadata)

	return sym, nil
}

func scanReference(rows *sql.Rows) (domain.Reference, error) {
	var ref domain.Reference
	var kind, language string
	var endLine, endCol sql.NullInt64
	var targetModule sql.NullString
	var metadataJSON string
	var symbolID, containerID sql.NullInt64

	err := rows.Scan(
		&ref.ID, &ref.FilePath, &ref.Name, &ref.QualifiedName, &kind, &language, &ref.Line, &ref.Col,
		&endLine, &endCol, &targetModule, &metadataJSON, &ref.FileHash, &symbolID, &containerID,
	)
	if err != nil {
		return domain.Reference{}, err
	}

	ref.Kind = domain.ReferenceKind(kind)
	ref.Language = domain.Language(language)
	ref.TargetModule = targetModule.String
	if endLine.Valid {
		v := int(endLine.Int64)
		ref.EndLine = &v
	}
	if endCol.Valid {
		v := int(endCol.Int64)
		ref.EndCol = &v
	}
	if symbolID.Valid {
		v := symbolID.Int64
		ref.SymbolID = &v
	}
	if containerID.Valid {
		v := containerID.Int64
		ref.ContainerID = &v
	}
	ref.Metadata = map[string]string{}
	_ = json.Unmarshal([]byte(metadataJSON), &ref.Metadata)

	return ref, nil
}

func appendKindLanguage(query string, args []interface{}, kind, language, tablePrefix string) (string, []interface{}) {
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	if language != "" {
		query += ` AND language = ?`
		args = append(args, language)
	}
	return query, args
}

func appendLimit(query string, args []interface{}, limit int) (string, []interface{}) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return query, args
}
