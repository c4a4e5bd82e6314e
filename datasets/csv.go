// Package datasets loads labelled example sets and splits them for evaluation.
package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/sefr/core/model"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CSVOptions controls how ReadCSV interprets a file.
type CSVOptions struct {
	// LabelColumn is the index of the label column. Negative values count
	// from the end, so -1 is the last column.
	LabelColumn int
	// Header skips the first record.
	Header bool
}

// ReadCSV reads one example per record. Every column except the label column
// must parse as a float64; labels are kept as trimmed strings. A record needs
// at least one feature column besides the label.
//
// An input with no data records returns an empty *mat.Dense and nil labels.
func ReadCSV(r io.Reader, opts CSVOptions) (*mat.Dense, []string, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	var (
		rows   [][]float64
		labels []string
	)
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "datasets: read csv")
		}
		line++
		if line == 1 && opts.Header {
			continue
		}

		labelCol := opts.LabelColumn
		if labelCol < 0 {
			labelCol += len(rec)
		}
		if labelCol < 0 || labelCol >= len(rec) {
			return nil, nil, errors.NewValidationError("label_column", "out of range for record", opts.LabelColumn)
		}
		if len(rec) < 2 {
			return nil, nil, errors.Wrapf(
				errors.NewValueError("datasets.ReadCSV", "record has a label but no feature columns"),
				"line %d", line)
		}

		x := make([]float64, 0, len(rec)-1)
		for i, s := range rec {
			if i == labelCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(
					errors.NewValueError("datasets.ReadCSV", "non-numeric feature"),
					"line %d column %d: %q", line, i, s)
			}
			x = append(x, v)
		}
		rows = append(rows, x)
		labels = append(labels, strings.TrimSpace(rec[labelCol]))
	}

	X, err := model.DenseFromRows(rows)
	if err != nil {
		return nil, nil, err
	}
	return X, labels, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, opts CSVOptions) (*mat.Dense, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "datasets: open %s", path)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// IntLabels converts string labels to ints, for data sets whose classes are
// numeric codes.
func IntLabels(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, s := range labels {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(
				errors.NewValueError("datasets.IntLabels", "non-integer label"),
				"row %d: %q", i, s)
		}
		out[i] = v
	}
	return out, nil
}
