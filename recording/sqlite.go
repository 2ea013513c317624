package recording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

const hopTable = "hops"

// SQLiteWriter writes hops into a SQLite database.
type SQLiteWriter struct {
	*sql.DB

	dbName    string
	hops      []Hop
	batchSize int
}

// NewSQLiteWriter creates a SQLiteWriter. The database is stored in
// path.sqlite3. An empty path picks a unique name.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{
		dbName:    path,
		batchSize: 100000,
	}
}

// Init creates the database and the hop table.
func (w *SQLiteWriter) Init() {
	if w.dbName == "" {
		w.dbName = "longstack_hops_" + xid.New().String()
	}

	filename := w.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.DB = db

	fields := strings.Join(structs.Names(Hop{}), ", \n\t")
	w.mustExecute(`CREATE TABLE ` + hopTable + ` (` + "\n\t" + fields + "\n" + `);`)

	atexit.Register(func() { w.Flush() })
}

// Filename returns the database file.
func (w *SQLiteWriter) Filename() string {
	return w.dbName + ".sqlite3"
}

// Write buffers a hop.
func (w *SQLiteWriter) Write(h Hop) {
	w.hops = append(w.hops, h)
	if len(w.hops) >= w.batchSize {
		w.Flush()
	}
}

// Flush writes the buffered hops in one transaction.
func (w *SQLiteWriter) Flush() {
	if len(w.hops) == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	placeholders := make([]string, len(structs.Names(Hop{})))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := w.Prepare(
		"INSERT INTO " + hopTable + " VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, h := range w.hops {
		_, err := stmt.Exec(structs.Values(h)...)
		if err != nil {
			panic(err)
		}
	}

	w.hops = nil
}

func (w *SQLiteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

// SQLiteReader reads hops written by a SQLiteWriter.
type SQLiteReader struct {
	*sql.DB

	filename string
}

// NewSQLiteReader creates a reader of the database stored in path.sqlite3.
func NewSQLiteReader(path string) *SQLiteReader {
	return &SQLiteReader{filename: path + ".sqlite3"}
}

// Init opens the database.
func (r *SQLiteReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListHops returns the recorded hops in the order they were written. A limit
// of 0 returns all of them.
func (r *SQLiteReader) ListHops(ctx context.Context, limit int) ([]Hop, error) {
	query := "SELECT * FROM " + hopTable + " ORDER BY rowid"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list hops")
	}
	defer rows.Close()

	var hops []Hop
	for rows.Next() {
		h, err := scanHop(rows)
		if err != nil {
			return nil, err
		}

		hops = append(hops, h)
	}

	return hops, errors.Wrap(rows.Err(), "cannot list hops")
}

// BackTrace returns the first recorded activation of the context id followed
// by the first activations of its ancestors, newest first.
func (r *SQLiteReader) BackTrace(ctx context.Context, id string) ([]Hop, error) {
	var out []Hop

	for id != "" {
		row := r.QueryRowContext(ctx,
			"SELECT * FROM "+hopTable+" WHERE ContextID = ? ORDER BY rowid LIMIT 1",
			id)

		h, err := scanHop(row)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}

		if err != nil {
			return nil, err
		}

		out = append(out, h)
		id = h.ParentID
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHop(s scanner) (Hop, error) {
	var h Hop

	err := s.Scan(&h.ContextID, &h.ParentID, &h.Label, &h.Class, &h.Depth, &h.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return h, err
	}

	return h, errors.Wrap(err, "cannot scan hop")
}
