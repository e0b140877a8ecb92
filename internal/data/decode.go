package data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

var decoders = map[string]func(io.Reader) ([]Row, error){
	".csv":  decodeCSV,
	".json": decodeJSON,
}

// decodeCSV reads a header line and data lines. Short lines are padded with
// empty values; extra fields are ignored.
func decodeCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
}

// decodeJSON reads an array of flat objects. Non-string values are formatted with %v.
func decodeJSON(r io.Reader) ([]Row, error) {
	var objects []map[string]any
	if err := json.NewDecoder(r).Decode(&objects); err != nil {
		return nil, fmt.Errorf("expected an array of objects: %w", err)
	}
	rows := make([]Row, len(objects))
	for i, obj := range objects {
		rows[i] = make(Row, len(obj))
		for k, v := range obj {
			switch v := v.(type) {
			case string:
				rows[i][k] = v
			case nil:
				rows[i][k] = ""
			default:
				rows[i][k] = fmt.Sprint(v)
			}
		}
	}
	return rows, nil
}
