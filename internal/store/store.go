// Package store provides durable, transactional persistence for symbols
// and references with the uniqueness and foreign-key invariants from §3,
// backed by SQLite via database/sql and modernc.org/sqlite (§4.4, §6).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codelantern/lci/internal/domain"
	"github.com/codelantern/lci/internal/errs"
)

// Store owns the sqlite connection backing one project's index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and applies
// the schema. path may be ":memory:" for an ephemeral in-process store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.New(errs.KindStore, "open", err)
	}
	// code_symbols self-references via parent_id; symbol_references
	// references code_symbols via container_id. A single writer connection
	// keeps replace_file transactions serialized per §5 without needing a
	// connection-pool-wide busy_timeout dance.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errs.New(errs.KindStore, "open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.New(errs.KindStore, "migrate", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceResult summarizes one replace_file call.
type ReplaceResult struct {
	SymbolsWritten    int
	ReferencesWritten int
}

// ReplaceFile deletes all rows for filePath, then inserts symbols and
// references within one transaction. Symbols are inserted outermost-first
// so each child's parent_id can reference an already-assigned row id
// within the same transaction (§9). References are linked to their
// innermost containing symbol (kind ∈ {module, class, method, function})
// once symbol ids are known.
func (s *Store) ReplaceFile(ctx context.Context, filePath string, symbols []domain.Symbol, references []domain.Reference, fileHash string) (ReplaceResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbol_references WHERE file_path = ?`, filePath); err != nil {
		return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM code_symbols WHERE file_path = ?`, filePath); err != nil {
		return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
	}

	ordered := append([]domain.Symbol(nil), symbols...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return symbolSpan(ordered[i]) > symbolSpan(ordered[j])
	})

	ids := make([]int64, len(ordered))
	for i, sym := range ordered {
		parentID := findParentID(ordered, ids, i)

		metadataJSON, err := json.Marshal(sym.Metadata)
		if err != nil {
			return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
		}

		indexedAt := sym.IndexedAt
		if indexedAt.IsZero() {
			indexedAt = time.Now().UTC()
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO code_symbols
				(file_path, name, qualified_name, kind, language, visibility,
				 start_line, start_col, end_line, end_col, signature, doc,
				 metadata, file_hash, indexed_at, parent_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path, start_line, start_col, name) DO UPDATE SET
				qualified_name = excluded.qualified_name,
				kind = excluded.kind,
				language = excluded.language,
				visibility = excluded.visibility,
				end_line = excluded.end_line,
				end_col = excluded.end_col,
				signature = excluded.signature,
				doc = excluded.doc,
				metadata = excluded.metadata,
				file_hash = excluded.file_hash,
				indexed_at = excluded.indexed_at,
				parent_id = excluded.parent_id
		`,
			filePath, sym.Name, sym.QualifiedName, string(sym.Kind), string(sym.Language), string(sym.Visibility),
			sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol, nullableString(sym.Signature), nullableString(sym.Doc),
			string(metadataJSON), fileHash, indexedAt.Format(time.RFC3339Nano), nullableInt64(parentID),
		)
		if err != nil {
			return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
		}
		ids[i] = id
	}

	for _, ref := range references {
		containerID := findContainerID(ordered, ids, ref)

		metadataJSON, err := json.Marshal(ref.Metadata)
		if err != nil {
			return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO symbol_references
				(file_path, name, qualified_name, kind, language, line, col,
				 end_line, end_col, target_module, metadata, file_hash,
				 symbol_id, container_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(file_path, line, col, name) DO UPDATE SET
				qualified_name = excluded.qualified_name,
				kind = excluded.kind,
				language = excluded.language,
				end_line = excluded.end_line,
				end_col = excluded.end_col,
				target_module = excluded.target_module,
				metadata = excluded.metadata,
				file_hash = excluded.file_hash,
				symbol_id = excluded.symbol_id,
				container_id = excluded.container_id
		`,
			filePath, ref.Name, ref.QualifiedName, string(ref.Kind), string(ref.Language), ref.Line, ref.Col,
			nullableIntPtr(ref.EndLine), nullableIntPtr(ref.EndCol), nullableString(ref.TargetModule),
			string(metadataJSON), fileHash, nullableInt64Ptr(ref.SymbolID), nullableInt64(containerID),
		)
		if err != nil {
			return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
		}
	}

	if err := tx.Commit(); err != nil {
		return ReplaceResult{}, errs.New(errs.KindStore, "replace_file", err).WithFile(filePath)
	}

	return ReplaceResult{SymbolsWritten: len(symbols), ReferencesWritten: len(references)}, nil
}

// RemoveFile deletes all rows for filePath. Idempotent: removing an
// already-absent file returns zero rows deleted, not an error.
func (s *Store) RemoveFile(ctx context.Context, filePath string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.New(errs.KindStore, "remove_file", err).WithFile(filePath)
	}
	defer tx.Rollback()

	refRes, err := tx.ExecContext(ctx, `DELETE FROM symbol_references WHERE file_path = ?`, filePath)
	if err != nil {
		return 0, errs.New(errs.KindStore, "remove_file", err).WithFile(filePath)
	}
	symRes, err := tx.ExecContext(ctx, `DELETE FROM code_symbols WHERE file_path = ?`, filePath)
	if err != nil {
		return 0, errs.New(errs.KindStore, "remove_file", err).WithFile(filePath)
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.New(errs.KindStore, "remove_file", err).WithFile(filePath)
	}

	refCount, _ := refRes.RowsAffected()
	symCount, _ := symRes.RowsAffected()
	return refCount + symCount, nil
}

// symbolSpan orders symbols outermost-first for insertion.
func symbolSpan(s domain.Symbol) int {
	return (s.EndLine-s.StartLine)*1_000_000 + (s.EndCol - s.StartCol)
}

// findParentID returns the already-inserted id of the smallest symbol
// (among those inserted before i, since insertion order is outermost
// first) whose range strictly contains ordered[i]'s range.
func findParentID(ordered []domain.Symbol, ids []int64, i int) *int64 {
	child := &ordered[i]
	var parent *domain.Symbol
	var parentID int64
	for j := 0; j < i; j++ {
		candidate := &ordered[j]
		if !candidate.Contains(child) {
			continue
		}
		if parent == nil || symbolSpan(*candidate) < symbolSpan(*parent) {
			parent = candidate
			parentID = ids[j]
		}
	}
	if parent == nil {
		return nil
	}
	id := parentID
	return &id
}

// findContainerID locates the innermost symbol of kind ∈ {module, class,
// method, function} whose range contains ref's position (§4.6 call_graph,
// §3 container_id).
func findContainerID(ordered []domain.Symbol, ids []int64, ref domain.Reference) *int64 {
	var container *domain.Symbol
	var containerID int64
	for j := range ordered {
		s := &ordered[j]
		if !domain.ContainerDefinitionKinds[s.Kind] {
			continue
		}
		if !positionWithin(*s, ref.Line, ref.Col) {
			continue
		}
		if container == nil || symbolSpan(*s) < symbolSpan(*container) {
			container = s
			containerID = ids[j]
		}
	}
	if container == nil {
		return nil
	}
	id := containerID
	return &id
}

func positionWithin(s domain.Symbol, line, col int) bool {
	if line < s.StartLine || line > s.EndLine {
		return false
	}
	if line == s.StartLine && col < s.StartCol {
		return false
	}
	if line == s.EndLine && col >= s.EndCol {
		return false
	}
	return true
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64Ptr(v *int64) interface{} {
	return nullableInt64(v)
}

func nullableIntPtr(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
