package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Media files: content-addressed PDFs served under /media/<media_id>.pdf
CREATE TABLE IF NOT EXISTS media_files (
    media_id TEXT PRIMARY KEY,        -- sha256 of the content, hex
    upload_id TEXT NOT NULL,          -- uuid of the first upload
    mime_type TEXT NOT NULL DEFAULT 'application/pdf',
    file_path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    original_name TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_served_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_media_created ON media_files(created_at DESC);

-- Document loads: every open attempt of a reference
CREATE TABLE IF NOT EXISTS document_loads (
    load_id INTEGER PRIMARY KEY AUTOINCREMENT,
    reference TEXT NOT NULL,
    resolved_url TEXT,
    success BOOLEAN NOT NULL,
    page_count INTEGER DEFAULT 0,
    error_summary TEXT,
    error_remedy TEXT,
    error_raw TEXT,
    loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_loads_reference ON document_loads(reference);
CREATE INDEX IF NOT EXISTS idx_loads_time ON document_loads(loaded_at);
CREATE INDEX IF NOT EXISTS idx_loads_success ON document_loads(success);
`
