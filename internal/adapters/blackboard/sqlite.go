// internal/adapters/blackboard/sqlite.go
package blackboard

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/errors"
	"autoingest/internal/platform/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS findings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  object_id TEXT NOT NULL,
  object_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS attributes (
  finding_id INTEGER NOT NULL REFERENCES findings(id),
  type_id INTEGER NOT NULL,
  type_name TEXT NOT NULL,
  source TEXT NOT NULL,
  value_text TEXT,
  value_int INTEGER,
  value_real REAL
);
CREATE INDEX IF NOT EXISTS idx_findings_kind ON findings (kind);
CREATE INDEX IF NOT EXISTS idx_attributes_finding ON attributes (finding_id);
`

// SQLiteSink persiste findings en una base SQLite (el "blackboard" del caso).
// Es seguro para uso concurrente: las escrituras se serializan en una única
// conexión.
type SQLiteSink struct {
	db     *sql.DB
	path   string
	logger logx.Logger
	closed atomic.Bool

	schemaOnce sync.Once
	schemaErr  error
}

var (
	_ ports.ResultSink = (*SQLiteSink)(nil)
	_ ports.SinkStats  = (*SQLiteSink)(nil)
)

// OpenSQLite abre (o crea) la base en path y asegura el schema.
func OpenSQLite(path string, logger logx.Logger) (*SQLiteSink, error) {
	if logger == nil {
		logger = logx.New()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create blackboard directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrapf(err, "open blackboard %s", path)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteSink{
		db:     db,
		path:   path,
		logger: logger.With("component", "blackboard", "path", path),
	}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("blackboard opened")
	return s, nil
}

func (s *SQLiteSink) ensureSchema() error {
	s.schemaOnce.Do(func() {
		if _, err := s.db.Exec(schema); err != nil {
			s.schemaErr = errors.Wrap(err, "create blackboard schema")
		}
	})
	return s.schemaErr
}

// NewFinding inserta un finding asociado a obj.
func (s *SQLiteSink) NewFinding(obj domain.Content, kind domain.FindingKind) (ports.FindingHandle, error) {
	if s.closed.Load() {
		return nil, errors.ErrClosed
	}
	res, err := s.db.Exec(
		`INSERT INTO findings (object_id, object_name, kind, created_at) VALUES (?, ?, ?, ?)`,
		obj.ContentID(), obj.ContentName(), string(kind), time.Now().UTC(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert %s finding", kind)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "read finding id")
	}
	return &sqliteHandle{sink: s, id: id}, nil
}

// Count retorna el total de findings.
func (s *SQLiteSink) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM findings`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count findings")
	}
	return n, nil
}

// CountByKind retorna el total de findings por kind.
func (s *SQLiteSink) CountByKind() (map[domain.FindingKind]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM findings GROUP BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "count findings by kind")
	}
	defer rows.Close()

	out := make(map[domain.FindingKind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.Wrap(err, "scan kind count")
		}
		out[domain.FindingKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Findings retorna los findings de kind con sus atributos, en orden de inserción.
func (s *SQLiteSink) Findings(kind domain.FindingKind) ([]Finding, error) {
	rows, err := s.db.Query(
		`SELECT id, object_id, object_name, kind FROM findings WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s findings", kind)
	}

	var out []Finding
	for rows.Next() {
		var (
			f     Finding
			kindS string
		)
		if err := rows.Scan(&f.ID, &f.ObjectID, &f.ObjectName, &kindS); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan finding")
		}
		f.Kind = domain.FindingKind(kindS)
		out = append(out, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i := range out {
		attrs, err := s.attributes(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Attributes = attrs
	}
	return out, nil
}

func (s *SQLiteSink) attributes(findingID int64) ([]domain.Attribute, error) {
	rows, err := s.db.Query(
		`SELECT type_id, source, value_text, value_int, value_real FROM attributes WHERE finding_id = ? ORDER BY rowid`,
		findingID)
	if err != nil {
		return nil, errors.Wrapf(err, "query attributes of finding %d", findingID)
	}
	defer rows.Close()

	var out []domain.Attribute
	for rows.Next() {
		var (
			typeID int
			source string
			text   sql.NullString
			ival   sql.NullInt64
			rval   sql.NullFloat64
		)
		if err := rows.Scan(&typeID, &source, &text, &ival, &rval); err != nil {
			return nil, errors.Wrap(err, "scan attribute")
		}
		attr := domain.Attribute{Type: domain.AttributeType(typeID), Source: source}
		switch {
		case ival.Valid:
			attr.Value = ival.Int64
		case rval.Valid:
			attr.Value = rval.Float64
		default:
			attr.Value = text.String
		}
		out = append(out, attr)
	}
	return out, rows.Err()
}

// Close cierra la base. Llamadas repetidas son no-op.
func (s *SQLiteSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Debug("blackboard closed")
	return errors.Wrap(s.db.Close(), "close blackboard")
}

type sqliteHandle struct {
	sink *SQLiteSink
	id   int64
}

func (h *sqliteHandle) ID() int64 { return h.id }

// AddAttributes inserta todos los atributos en una transacción.
func (h *sqliteHandle) AddAttributes(attrs []domain.Attribute) error {
	if len(attrs) == 0 {
		return nil
	}
	if h.sink.closed.Load() {
		return errors.ErrClosed
	}

	tx, err := h.sink.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin attribute transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO attributes
(finding_id, type_id, type_name, source, value_text, value_int, value_real)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare attribute insert")
	}
	defer stmt.Close()

	for _, a := range attrs {
		text, ival, rval := splitValue(a.Value)
		if _, err := stmt.Exec(h.id, int(a.Type), a.Type.String(), a.Source, text, ival, rval); err != nil {
			return errors.Wrapf(err, "insert attribute %s", a.Type)
		}
	}
	return errors.Wrap(tx.Commit(), "commit attributes")
}

// splitValue reparte el valor en la columna que corresponde a su tipo.
func splitValue(v any) (text, ival, rval any) {
	switch x := v.(type) {
	case string:
		return x, nil, nil
	case int:
		return nil, int64(x), nil
	case int32:
		return nil, int64(x), nil
	case int64:
		return nil, x, nil
	case float32:
		return nil, nil, float64(x)
	case float64:
		return nil, nil, x
	case time.Time:
		return nil, x.Unix(), nil
	case nil:
		return "", nil, nil
	default:
		return fmt.Sprint(x), nil, nil
	}
}
