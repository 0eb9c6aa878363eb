package tare

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record - one parsed batch row, weight already normalized to kg
type Record struct {
	ContainerID string
	Weight      int
}

var ErrUnsupportedFormat = fmt.Errorf("unsupported file format")

// ParseFile reads a whole batch file before anything is written, so a single
// malformed row aborts the upload with nothing applied.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(f)
	case ".json":
		return parseJSON(f)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// parseCSV accepts both layouts interchangeably: "id,weight" and
// "id,weight,unit". A leading header row is optional.
func parseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error processing CSV file: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id") {
				continue // header row
			}
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

func parseRow(row []string) (*Record, error) {
	if len(row) == 0 {
		return nil, nil
	}
	if len(row) < 2 {
		return nil, fmt.Errorf("row for container %q has no weight", row[0])
	}

	id := strings.TrimSpace(row[0])
	if id == "" {
		return nil, fmt.Errorf("row with empty container id")
	}

	weight, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid weight value: %s", row[1])
	}

	unit := "kg"
	if len(row) >= 3 {
		unit = strings.TrimSpace(row[2])
	}

	kg, err := normalizeKg(weight, unit)
	if err != nil {
		return nil, err
	}
	return &Record{ContainerID: id, Weight: kg}, nil
}

func parseJSON(r io.Reader) ([]Record, error) {
	var items []struct {
		ID     string   `json:"id"`
		Weight *float64 `json:"weight"`
		Unit   string   `json:"unit"`
	}
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Weight == nil {
			return nil, fmt.Errorf("each item must have 'id' and 'weight' fields")
		}
		unit := item.Unit
		if unit == "" {
			unit = "kg"
		}
		kg, err := normalizeKg(*item.Weight, unit)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{ContainerID: item.ID, Weight: kg})
	}
	return records, nil
}

// normalizeKg truncates to whole kilograms; any unit other than lbs is
// treated as kilograms, matching the upload contract.
func normalizeKg(weight float64, unit string) (int, error) {
	if weight < 0 {
		return 0, fmt.Errorf("invalid weight value: %v", weight)
	}
	if strings.EqualFold(unit, "lbs") {
		return int(weight * 0.453592), nil
	}
	return int(weight), nil
}
