// Package siteconfig parses site.toml and post.toml files into goupi
// configurations.
package siteconfig

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"goupi/internal/goupi"
)

// Location names the toml decoder gives to local date and time values.
const (
	localDatetimeZone = "datetime-local"
	localDateZone     = "date-local"
	localTimeZone     = "time-local"
)

// Parser implements goupi.ConfigParser on top of BurntSushi/toml.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseConfig decodes a TOML document. Only the top-level table becomes the
// configuration; nested tables and arrays are kept as Table and Array values.
func (p *Parser) ParseConfig(text []byte) (goupi.Configuration, error) {
	var raw map[string]any
	if _, err := toml.Decode(string(text), &raw); err != nil {
		return nil, fmt.Errorf("decoding toml: %w", err)
	}

	cfg := make(goupi.Configuration, len(raw))
	for key, v := range raw {
		value, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		cfg[key] = value
	}
	return cfg, nil
}

func convert(v any) (goupi.Value, error) {
	switch v := v.(type) {
	case string:
		return goupi.String(v), nil
	case int64:
		return goupi.Integer(v), nil
	case float64:
		return goupi.Float(v), nil
	case bool:
		return goupi.Boolean(v), nil
	case time.Time:
		return convertDatetime(v), nil
	case []any:
		arr := make(goupi.Array, 0, len(v))
		for i, elem := range v {
			value, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr = append(arr, value)
		}
		return arr, nil
	case []map[string]any:
		arr := make(goupi.Array, 0, len(v))
		for i, elem := range v {
			value, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr = append(arr, value)
		}
		return arr, nil
	case map[string]any:
		table := make(goupi.Table, len(v))
		for key, elem := range v {
			value, err := convert(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			table[key] = value
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported toml type %T", v)
	}
}

func convertDatetime(t time.Time) goupi.Datetime {
	kind := goupi.OffsetDatetime
	switch t.Location().String() {
	case localDatetimeZone:
		kind = goupi.LocalDatetime
	case localDateZone:
		kind = goupi.LocalDate
	case localTimeZone:
		kind = goupi.LocalTime
	}
	return goupi.Datetime{Time: t, Kind: kind}
}

var _ goupi.ConfigParser = (*Parser)(nil)
