package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// clickHouseConn is the subset of the native ClickHouse connection the
// recorder uses. driver.Conn satisfies it.
type clickHouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	PrepareBatch(ctx context.Context, query string,
		opts ...driver.PrepareBatchOption) (driver.Batch, error)
	Close() error
}

// ClickHouseRecorder is a DataRecorder backed by a ClickHouse database. It
// is intended for parameter studies where many runs share one database;
// per-run SQLite files are the better default for single runs.
//
// Entries are buffered per table and sent in batches.
type ClickHouseRecorder struct {
	conn      clickHouseConn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*table
	entryCount int
}

// NewClickHouseRecorder connects to a ClickHouse server and returns a
// recorder writing into the given database.
func NewClickHouseRecorder(
	host string,
	port int,
	database, username, password string,
	batchSize int,
) DataRecorder {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      time.Second * 30,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	return newClickHouseRecorderWithConn(conn, batchSize)
}

func newClickHouseRecorderWithConn(
	conn clickHouseConn,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize == 0 {
		batchSize = 100000
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// CreateTable creates a table whose columns match the fields of the sample
// entry struct.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	structType := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		columns = append(columns,
			field.Name+" "+r.columnType(field))
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		) ENGINE = MergeTree()
		ORDER BY %s`,
		tableName,
		strings.Join(columns, ",\n\t\t\t"),
		structType.Field(0).Name)

	err := r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{
		structType: structType,
		entries:    []any{},
	}
}

func (r *ClickHouseRecorder) columnType(field reflect.StructField) string {
	switch field.Type.Kind() {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	case reflect.String:
		return "String"
	default:
		panic(fmt.Sprintf("entry field %s is not storable", field.Name))
	}
}

// InsertData buffers one entry for a table created earlier.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flushLocked()
	}
}

// ListTables returns the names of all tables created on this recorder.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	return tables
}

// Flush sends all buffered entries.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
}

func (r *ClickHouseRecorder) flushLocked() {
	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf(
				"failed to prepare batch for %s: %w", tableName, err))
		}

		for _, entry := range table.entries {
			if err := batch.Append(structs.Values(entry)...); err != nil {
				panic(fmt.Errorf("failed to append to batch: %w", err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("failed to send batch: %w", err))
		}

		table.entries = nil
	}

	r.entryCount = 0
}

// Close flushes and closes the connection.
func (r *ClickHouseRecorder) Close() {
	r.Flush()

	if err := r.conn.Close(); err != nil {
		panic(err)
	}
}
