package output

import (
	"bufio"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ReadASINs loads product identifiers from a CSV file with an ASIN header
// column, or from a plain text file with one ASIN per line (# comments
// allowed). Extension decides the format; unknown extensions try CSV first.
func ReadASINs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readASINsCSV(path)
	case ".txt":
		return readASINsPlain(path)
	default:
		if asins, err := readASINsCSV(path); err == nil && len(asins) > 0 {
			return asins, nil
		}
		return readASINsPlain(path)
	}
}

func readASINsCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}

	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "asin") {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain an 'ASIN' header column")
	}

	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if a := strings.TrimSpace(row[col]); a != "" {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func readASINsPlain(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no ASINs found in input file")
	}
	return out, nil
}
