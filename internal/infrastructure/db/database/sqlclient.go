package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// SQLClient runs a single parameterized statement and returns its rows.
// Placeholders are written as "?" and rebound for the driver.
type SQLClient interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// serverlessClient opens a fresh connection for every call and closes it
// before returning, so no socket outlives the invocation.
type serverlessClient struct {
	cfg *pgx.ConnConfig
}

func (c *serverlessClient) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	conn, err := pgx.ConnectConfig(ctx, c.cfg.Copy())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	rows, err := conn.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// poolClient runs statements on the manager's shared pool, creating it on
// first use.
type poolClient struct {
	m *Manager
}

func (c *poolClient) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	pool, err := c.m.Pool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// Rebind rewrites "?" placeholders to Postgres "$n" ordinals. A doubled
// "??" is emitted as a literal "?", which is how the JSONB operators ?, ?|
// and ?& are written. Question marks are left untouched inside string
// literals (including E'' and dollar-quoted strings), double-quoted
// identifiers and comments.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); {
		if query[i] != '?' {
			end := skipVerbatim(query, i)
			b.WriteString(query[i:end])
			i = end
			continue
		}
		if i+1 < len(query) && query[i+1] == '?' {
			b.WriteByte('?')
			i += 2
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		i++
	}
	return b.String()
}

// skipVerbatim returns the end of the token starting at i that must be copied
// as is: a quoted literal or identifier, a comment, or otherwise one byte.
func skipVerbatim(q string, i int) int {
	switch {
	case q[i] == '\'':
		escapes := i > 0 && (q[i-1] == 'E' || q[i-1] == 'e') && (i < 2 || !isIdentByte(q[i-2]))
		for j := i + 1; j < len(q); j++ {
			switch {
			case escapes && q[j] == '\\':
				j++
			case q[j] == '\'':
				if j+1 < len(q) && q[j+1] == '\'' {
					j++
					continue
				}
				return j + 1
			}
		}
		return len(q)
	case q[i] == '"':
		if end := strings.IndexByte(q[i+1:], '"'); end >= 0 {
			return i + 1 + end + 1
		}
		return len(q)
	case strings.HasPrefix(q[i:], "--"):
		if end := strings.IndexByte(q[i:], '\n'); end >= 0 {
			return i + end + 1
		}
		return len(q)
	case strings.HasPrefix(q[i:], "/*"):
		depth := 0
		for j := i; j+1 < len(q); j++ {
			switch q[j : j+2] {
			case "/*":
				depth++
				j++
			case "*/":
				depth--
				j++
				if depth == 0 {
					return j + 1
				}
			}
		}
		return len(q)
	case q[i] == '$':
		j := i + 1
		if i > 0 && isIdentByte(q[i-1]) || j < len(q) && q[j] >= '0' && q[j] <= '9' {
			return j
		}
		for j < len(q) && isIdentByte(q[j]) {
			j++
		}
		if j >= len(q) || q[j] != '$' {
			return i + 1
		}
		tag := q[i : j+1]
		if end := strings.Index(q[j+1:], tag); end >= 0 {
			return j + 1 + end + len(tag)
		}
		return len(q)
	}
	return i + 1
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
