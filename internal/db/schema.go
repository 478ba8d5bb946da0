package db

// schema is the full database schema.
//
// Entity ids are TEXT: copy and borrower ids are human-entered (barcodes,
// student ids), the rest are generated UUIDs. Book authors/categories are
// ordered JSON arrays. transactions.book_id is a denormalized snapshot and
// carries no foreign key so loan history survives catalog deletions.
const schema = `
CREATE TABLE IF NOT EXISTS books (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    authors        TEXT NOT NULL DEFAULT '[]',
    categories     TEXT NOT NULL DEFAULT '[]',
    isbn           TEXT NOT NULL DEFAULT '',
    genre          TEXT NOT NULL DEFAULT '',
    publisher      TEXT NOT NULL DEFAULT '',
    published_year TEXT NOT NULL DEFAULT '',
    rack           TEXT NOT NULL DEFAULT '',
    shelf          TEXT NOT NULL DEFAULT '',
    call_number    TEXT NOT NULL DEFAULT '',
    description    TEXT,
    cover          BLOB,
    cover_mime     TEXT
);

CREATE TABLE IF NOT EXISTS copies (
    id                TEXT PRIMARY KEY,
    book_id           TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'AVAILABLE'
        CHECK (status IN ('AVAILABLE', 'BORROWED', 'LOST', 'DAMAGED', 'WITHDRAWN')),
    added_date        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    is_reference_only INTEGER NOT NULL DEFAULT 0,
    narration         TEXT
);

CREATE INDEX IF NOT EXISTS idx_copies_book ON copies(book_id);

CREATE TABLE IF NOT EXISTS borrowers (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL,
    role  TEXT NOT NULL,
    email TEXT
);

CREATE TABLE IF NOT EXISTS staff (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    role          TEXT NOT NULL DEFAULT 'LIBRARIAN'
        CHECK (role IN ('ADMIN', 'LIBRARIAN', 'STUDENT')),
    password_hash TEXT NOT NULL,
    is_active     INTEGER NOT NULL DEFAULT 1,
    last_login    DATETIME
);

CREATE TABLE IF NOT EXISTS transactions (
    id               TEXT PRIMARY KEY,
    copy_id          TEXT NOT NULL REFERENCES copies(id),
    book_id          TEXT NOT NULL,
    user_id          TEXT NOT NULL REFERENCES borrowers(id),
    user_name        TEXT NOT NULL,
    issue_date       DATETIME NOT NULL,
    due_date         DATETIME NOT NULL,
    status           TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'RETURNED')),
    return_date      DATETIME,
    return_condition TEXT CHECK (return_condition IN ('GOOD', 'DAMAGED', 'LOST')),
    fine_amount      REAL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_active_copy
    ON transactions(copy_id) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS logs (
    id          TEXT PRIMARY KEY,
    book_id     TEXT,
    book_title  TEXT,
    action      TEXT NOT NULL,
    description TEXT NOT NULL,
    timestamp   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    user_id     TEXT,
    user_name   TEXT,
    staff_id    TEXT NOT NULL,
    staff_name  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_logs_book ON logs(book_id);

CREATE TABLE IF NOT EXISTS settings (
    setting_key   TEXT PRIMARY KEY,
    setting_value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`
