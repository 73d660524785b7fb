package tabular

import (
	"fmt"

	apperrors "creditdash/internal/errors"

	"github.com/tidwall/gjson"
)

// recordPaths are tried in order when the document root is an object
var recordPaths = []string{"data", "records", "rows", "items"}

// readJSONData reads an array of flat objects, either at the document root or
// under one of the common envelope keys. Columns follow the order in which
// keys first appear; a record without a key gets a missing cell.
func (r *Reader) readJSONData(data []byte) (*RawTable, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.ParseError("invalid JSON document", nil)
	}
	doc := gjson.ParseBytes(data)
	records := doc
	if doc.IsObject() {
		records = gjson.Result{}
		for _, path := range recordPaths {
			if res := doc.Get(path); res.IsArray() {
				records = res
				break
			}
		}
	}
	if !records.IsArray() {
		return nil, apperrors.ParseError("JSON document has no array of records", nil)
	}

	var (
		headers []string
		index   = map[string]int{}
		rows    []map[int]string
		bad     error
	)
	records.ForEach(func(i, rec gjson.Result) bool {
		if !rec.IsObject() {
			bad = apperrors.ParseError(fmt.Sprintf("record %d is not an object", i.Int()), nil)
			return false
		}
		row := map[int]string{}
		rec.ForEach(func(key, val gjson.Result) bool {
			j, ok := index[key.String()]
			if !ok {
				j = len(headers)
				index[key.String()] = j
				headers = append(headers, key.String())
			}
			row[j] = jsonCell(val)
			return true
		})
		rows = append(rows, row)
		return true
	})
	if bad != nil {
		return nil, bad
	}
	if len(headers) == 0 {
		return nil, apperrors.ParseError("missing header row", nil)
	}

	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, headers)
	for _, row := range rows {
		cells := make([]string, len(headers))
		for j := range cells {
			cells[j] = row[j]
		}
		grid = append(grid, cells)
	}
	return r.processRows(grid)
}

// jsonCell renders a JSON value the way a CSV cell would carry it
func jsonCell(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.True:
		return "True"
	case gjson.False:
		return "False"
	case gjson.Number:
		return v.Raw
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}
