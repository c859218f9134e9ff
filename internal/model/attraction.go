package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Attraction is a read-only point of interest from the catalog.
type Attraction struct {
	ID            string     `json:"id" db:"id" yaml:"id"`
	Name          string     `json:"name" db:"name" yaml:"name"`
	City          string     `json:"city" db:"city" yaml:"city"`
	Country       string     `json:"country" db:"country" yaml:"country"`
	Latitude      float64    `json:"latitude" db:"latitude" yaml:"latitude"`
	Longitude     float64    `json:"longitude" db:"longitude" yaml:"longitude"`
	Rating        float64    `json:"rating" db:"rating" yaml:"rating"`
	Description   string     `json:"description" db:"description" yaml:"description"`
	WorkingStatus string     `json:"working_status" db:"working_status" yaml:"working_status"`
	Photos        StringList `json:"photos" db:"photos" yaml:"photos"`
}

// CatalogKey folds a catalog name or city for case-insensitive lookups.
// Folding happens in Go because SQLite's LOWER only handles ASCII.
func CatalogKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// StringList is stored as a JSON array in a text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}
