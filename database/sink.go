package database

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
	"github.com/kbukum/fluxmux/message"
)

// TableSink inserts one row per message into a table. Message objects map
// field names to columns.
type TableSink struct {
	db      *DB
	table   string
	columns []Column
	log     *logger.Logger

	checkOnce sync.Once
	checkErr  error
}

// NewTableSink returns a sink inserting into table. When columns is not
// empty the table layout is checked before the first insert.
func NewTableSink(db *DB, table string, columns []Column, log *logger.Logger) (*TableSink, error) {
	if !IsIdentifier(table) {
		return nil, errors.InvalidInput("table", "invalid table name "+quote(table))
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &TableSink{
		db:      db,
		table:   table,
		columns: columns,
		log:     log.WithComponent("postgres-sink"),
	}, nil
}

func (s *TableSink) Name() string { return "postgres:" + s.table }

// Send inserts msg as a row. The payload must be a JSON object; nested
// objects and arrays are stored as JSON text.
func (s *TableSink) Send(ctx context.Context, msg message.Message) error {
	s.checkOnce.Do(func() { s.checkErr = s.checkColumns() })
	if s.checkErr != nil {
		return s.checkErr
	}

	decoded, err := msg.Decoded()
	if err != nil {
		return errors.InvalidInput("payload", "payload is not JSON").WithCause(err)
	}
	obj, ok := decoded.Object()
	if !ok {
		return errors.InvalidInput("payload", "payload must be a JSON object")
	}
	row, err := toRow(obj)
	if err != nil {
		return errors.InvalidInput("payload", err.Error())
	}

	if err := s.db.WithContext(ctx).Table(s.table).Create(row).Error; err != nil {
		return errors.DeliveryFailed(s.Name(), FromDatabase(err))
	}
	return nil
}

// Flush is a no-op; every Send commits its row.
func (s *TableSink) Flush(context.Context) error { return nil }

// Close closes the connection pool.
func (s *TableSink) Close() error { return s.db.Close() }

// checkColumns verifies that every required column exists with a
// compatible type.
func (s *TableSink) checkColumns() error {
	if len(s.columns) == 0 {
		return nil
	}
	migrator := s.db.GormDB.Migrator()
	if !migrator.HasTable(s.table) {
		return errors.SchemaInvalid(fmt.Sprintf("table %s does not exist", s.table))
	}
	types, err := migrator.ColumnTypes(s.table)
	if err != nil {
		return FromDatabase(err)
	}
	actual := make(map[string]string, len(types))
	for _, ct := range types {
		actual[strings.ToLower(ct.Name())] = ct.DatabaseTypeName()
	}

	for _, col := range s.columns {
		typ, ok := actual[strings.ToLower(col.Name)]
		if !ok {
			return errors.SchemaInvalid(fmt.Sprintf("required column %q of type %q not found in table %s", col.Name, col.Type, s.table)).
				WithDetail("column", col.Name)
		}
		if !TypesCompatible(typ, col.Type) {
			return errors.SchemaInvalid(fmt.Sprintf("column %q has type %q but required type is %q", col.Name, strings.ToLower(typ), col.Type)).
				WithDetail("column", col.Name)
		}
	}
	s.log.Debug("table columns verified", logger.Fields("table", s.table, "columns", len(s.columns)))
	return nil
}

// toRow converts a decoded object into column values. Integral numbers
// become int64 so they fit integer columns.
func toRow(obj map[string]any) (map[string]any, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("object has no fields")
	}
	row := make(map[string]any, len(obj))
	for k, v := range obj {
		if !IsIdentifier(k) || strings.Contains(k, ".") {
			return nil, fmt.Errorf("field %q is not a valid column name", k)
		}
		switch val := v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			row[k] = string(b)
		case float64:
			if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
				row[k] = int64(val)
			} else {
				row[k] = val
			}
		default:
			row[k] = val
		}
	}
	return row, nil
}
