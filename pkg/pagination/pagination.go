package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params is a keyset page request: a limit and the opaque cursor from the previous page.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of a page ordered by (timestamp DESC, id DESC).
type Cursor struct {
	At time.Time
	ID int64
}

// Page is an offset page request for catalog-style listings.
type Page struct {
	Number int
	Size   int
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// LimitWithBuffer is the row count to fetch so a next page can be detected.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Trim cuts rows fetched with LimitWithBuffer down to the page and reports
// whether a further page exists.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	n := NormalizeLimit(limit)
	if len(rows) <= n {
		return rows, false
	}
	return rows[:n], true
}

func (p Page) Normalize() Page {
	p.Number = max(p.Number, 1)
	p.Size = NormalizeLimit(p.Size)
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// HasNext reports whether rows beyond this page exist given the page's row count and the total.
func (p Page) HasNext(returned int, total int64) bool {
	return int64(p.Offset()+returned) < total
}

type cursorWire struct {
	At int64 `json:"t"`
	ID int64 `json:"id"`
}

func EncodeCursor(cursor Cursor) string {
	raw, _ := json.Marshal(cursorWire{At: cursor.At.UnixNano(), ID: cursor.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a cursor from EncodeCursor. A blank value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var wire cursorWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if wire.ID <= 0 || wire.At <= 0 {
		return nil, fmt.Errorf("%w: missing position", ErrInvalidCursor)
	}
	return &Cursor{At: time.Unix(0, wire.At).UTC(), ID: wire.ID}, nil
}
