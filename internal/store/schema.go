package store

const schema = `
CREATE TABLE IF NOT EXISTS code_symbols (
  id INTEGER PRIMARY KEY,
  file_path TEXT NOT NULL,
  name TEXT NOT NULL,
  qualified_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  language TEXT NOT NULL,
  visibility TEXT NOT NULL,
  start_line INTEGER NOT NULL,
  start_col INTEGER NOT NULL,
  end_line INTEGER NOT NULL,
  end_col INTEGER NOT NULL,
  signature TEXT,
  doc TEXT,
  metadata TEXT NOT NULL DEFAULT '{}',
  file_hash TEXT NOT NULL,
  indexed_at TEXT NOT NULL,
  parent_id INTEGER REFERENCES code_symbols(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS code_symbols_unique_location
  ON code_symbols(file_path, start_line, start_col, name);
CREATE INDEX IF NOT EXISTS code_symbols_file_path ON code_symbols(file_path);
CREATE INDEX IF NOT EXISTS code_symbols_name ON code_symbols(name);
CREATE INDEX IF NOT EXISTS code_symbols_qualified_name ON code_symbols(qualified_name);

CREATE TABLE IF NOT EXISTS symbol_references (
  id INTEGER PRIMARY KEY,
  file_path TEXT NOT NULL,
  name TEXT NOT NULL,
  qualified_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  language TEXT NOT NULL,
  line INTEGER NOT NULL,
  col INTEGER NOT NULL,
  end_line INTEGER,
  end_col INTEGER,
  target_module TEXT,
  metadata TEXT NOT NULL DEFAULT '{}',
  file_hash TEXT NOT NULL,
  symbol_id INTEGER,
  container_id INTEGER REFERENCES code_symbols(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS symbol_references_unique_location
  ON symbol_references(file_path, line, col, name);
CREATE INDEX IF NOT EXISTS symbol_references_file_path ON symbol_references(file_path);
CREATE INDEX IF NOT EXISTS symbol_references_name ON symbol_references(name);
`
