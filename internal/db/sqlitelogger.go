package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// loggingConnector opens sqlite3 connections that log each statement.
type loggingConnector struct {
	dsn    string
	logger *slog.Logger
	driver *sqlite3.SQLiteDriver
}

// NewLoggingConnector returns a driver.Connector for sql.OpenDB whose
// connections log every Exec/Query (SQL text and args) at debug level.
// If logger is nil, slog.Default() is used.
func NewLoggingConnector(dsn string, logger *slog.Logger) driver.Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingConnector{dsn: dsn, logger: logger, driver: &sqlite3.SQLiteDriver{}}
}

func (c *loggingConnector) Driver() driver.Driver { return c.driver }

func (c *loggingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.driver.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	sc, ok := conn.(*sqlite3.SQLiteConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite3-log: unexpected conn type %T", conn)
	}
	return &loggingConn{SQLiteConn: sc, logger: c.logger}, nil
}

// loggingConn embeds the sqlite3 connection so Begin, Ping, Close and the
// rest pass straight through; only statement entry points are intercepted.
type loggingConn struct {
	*sqlite3.SQLiteConn
	logger *slog.Logger
}

func (c *loggingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.log(ctx, "exec", query, args)
	return c.SQLiteConn.ExecContext(ctx, query, args)
}

func (c *loggingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.log(ctx, "query", query, args)
	return c.SQLiteConn.QueryContext(ctx, query, args)
}

func (c *loggingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	c.log(ctx, "prepare", query, nil)
	return c.SQLiteConn.PrepareContext(ctx, query)
}

func (c *loggingConn) log(ctx context.Context, op, query string, args []driver.NamedValue) {
	c.logger.DebugContext(ctx, "sql",
		"op", op,
		"sql", query,
		"args", formatArgs(args),
	)
}

func formatArgs(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		v := formatArg(a.Value)
		if a.Name != "" {
			v = a.Name + "=" + v
		}
		out[i] = v
	}
	return out
}

func formatArg(v driver.Value) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
