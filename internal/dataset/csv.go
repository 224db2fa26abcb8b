package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// #region load-csv
// LoadCSV reads a headered CSV file. targetCol names the label column; empty
// selects the last column. The target is marked integer-typed when every
// label parses as an integer literal.
func LoadCSV(path, targetCol string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, targetCol)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV rows from r. See LoadCSV.
func ReadCSV(r io.Reader, targetCol string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and one target column", ErrEmpty)
	}

	ti := len(header) - 1
	if targetCol != "" {
		ti = -1
		for i, h := range header {
			if strings.TrimSpace(h) == targetCol {
				ti = i
				break
			}
		}
		if ti < 0 {
			return nil, fmt.Errorf("target column %q not in header", targetCol)
		}
	}

	ds := &Dataset{TargetName: strings.TrimSpace(header[ti])}
	for i, h := range header {
		if i != ti {
			ds.FeatureNames = append(ds.FeatureNames, strings.TrimSpace(h))
		}
	}

	integer := true
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, 0, len(rec)-1)
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if i == ti {
				if _, perr := strconv.ParseInt(cell, 10, 64); perr != nil {
					integer = false
				}
				v, err := parseCell(cell)
				if err != nil {
					return nil, fmt.Errorf("line %d target: %w", line, err)
				}
				ds.Target = append(ds.Target, v)
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i, err)
			}
			row = append(row, v)
		}
		ds.Features = append(ds.Features, row)
	}
	ds.IntegerTarget = integer

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// parseCell accepts empty cells and "nan" as NaN.
func parseCell(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return strconv.ParseFloat("NaN", 64)
	}
	return strconv.ParseFloat(s, 64)
}

// #endregion load-csv
