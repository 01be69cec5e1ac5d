// Package postgresengine provides a PostgreSQL implementation of the lending store.
//
// This package persists the book catalog and loan records in PostgreSQL,
// supporting multiple database adapters (pgx, sql.DB, sqlx) with atomic
// operations and optimistic concurrency control.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Borrow and return applied as single atomic statements (data-modifying CTEs)
//   - Version-guarded writes with concurrency conflict detection via rows affected
//   - Configurable table names and dual-logger support
//
// Expected schema:
//
//	CREATE TABLE books (
//	    id               UUID PRIMARY KEY,
//	    title            TEXT    NOT NULL,
//	    author           TEXT    NOT NULL,
//	    genre            TEXT    NOT NULL,
//	    total_copies     INTEGER NOT NULL CHECK (total_copies >= 0),
//	    available_copies INTEGER NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
//	    version          BIGINT  NOT NULL DEFAULT 0
//	);
//
//	CREATE TABLE loans (
//	    id          UUID PRIMARY KEY,
//	    book_id     UUID        NOT NULL,
//	    user_id     UUID        NOT NULL,
//	    borrowed_at TIMESTAMPTZ NOT NULL,
//	    due_at      TIMESTAMPTZ NOT NULL,
//	    returned_at TIMESTAMPTZ
//	);
//
//	CREATE UNIQUE INDEX loans_one_open_per_user_book
//	    ON loans (book_id, user_id) WHERE returned_at IS NULL;
//
// There is deliberately no foreign key from loans to books: returned loans are
// kept as history and must not block catalog removal. Referential integrity for
// open loans is enforced by the store's conditional statements instead.
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewLendingStoreFromPGXPool(db)
//
//	// With operational logging (production-safe)
//	store, _ := postgresengine.NewLendingStoreFromPGXPool(
//		db,
//		postgresengine.WithBooksTableName("catalog"),
//		postgresengine.WithLogger(logger),
//	)
//
//	book, version, found, _ := store.BookByID(ctx, bookID)
//	err := store.AppendLoan(ctx, loan, version)
package postgresengine
