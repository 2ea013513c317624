package recording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/tebeka/atexit"
)

// ClickHouseWriter writes hops into a ClickHouse table.
type ClickHouseWriter struct {
	conn      clickhouse.Conn
	options   *clickhouse.Options
	table     string
	hops      []Hop
	batchSize int
}

// NewClickHouseWriter creates a writer that connects to the native protocol
// port at addr (host:port).
func NewClickHouseWriter(
	addr, database, username, password string,
) *ClickHouseWriter {
	return &ClickHouseWriter{
		options: &clickhouse.Options{
			Addr: []string{addr},
			Auth: clickhouse.Auth{
				Database: database,
				Username: username,
				Password: password,
			},
			Settings: clickhouse.Settings{
				"max_execution_time": 60,
			},
			DialTimeout:      30 * time.Second,
			MaxOpenConns:     5,
			MaxIdleConns:     5,
			ConnMaxLifetime:  time.Hour,
			ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		},
		table:     hopTable,
		batchSize: 100000,
	}
}

// WithTable sets the table the hops go to.
func (w *ClickHouseWriter) WithTable(table string) *ClickHouseWriter {
	w.table = table
	return w
}

// Init connects and creates the hop table if it does not exist.
func (w *ClickHouseWriter) Init() {
	conn, err := clickhouse.Open(w.options)
	if err != nil {
		panic(errors.Wrap(err, "failed to connect to ClickHouse"))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(errors.Wrap(err, "failed to ping ClickHouse"))
	}

	w.conn = conn

	err = w.conn.Exec(context.Background(), w.createTableSQL())
	if err != nil {
		panic(errors.Wrapf(err, "failed to create table %s", w.table))
	}

	atexit.Register(func() { w.Flush() })
}

func (w *ClickHouseWriter) createTableSQL() string {
	fields := structs.Fields(Hop{})
	columns := make([]string, 0, len(fields))

	for _, f := range fields {
		columns = append(columns, f.Name()+" "+clickHouseType(f.Kind()))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY (Time, ContextID)",
		w.table, strings.Join(columns, ",\n\t"))
}

func clickHouseType(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("no ClickHouse type for %s", k))
	}
}

// Write buffers a hop.
func (w *ClickHouseWriter) Write(h Hop) {
	w.hops = append(w.hops, h)
	if len(w.hops) >= w.batchSize {
		w.Flush()
	}
}

// Flush sends the buffered hops as one batch.
func (w *ClickHouseWriter) Flush() {
	if len(w.hops) == 0 {
		return
	}

	ctx := context.Background()

	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+w.table)
	if err != nil {
		panic(errors.Wrapf(err, "failed to prepare batch for %s", w.table))
	}

	for _, h := range w.hops {
		err = batch.Append(
			h.ContextID,
			h.ParentID,
			h.Label,
			h.Class,
			int64(h.Depth),
			h.Time,
		)
		if err != nil {
			panic(errors.Wrap(err, "failed to append to batch"))
		}
	}

	if err := batch.Send(); err != nil {
		panic(errors.Wrap(err, "failed to send batch"))
	}

	w.hops = w.hops[:0]
}

// Close flushes the remaining hops and closes the connection.
func (w *ClickHouseWriter) Close() error {
	if w.conn == nil {
		return nil
	}

	w.Flush()

	if err := w.conn.Close(); err != nil {
		return errors.Wrap(err, "failed to close ClickHouse connection")
	}

	w.conn = nil

	return nil
}
