package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/superviolin/pkg/dataset"
	"github.com/matzehuels/superviolin/pkg/errors"
)

// Load reads the table selected by opts: a file path, uploaded bytes or the
// bundled demo data.
func Load(opts Options) (*dataset.Table, error) {
	layout := dataset.Layout(opts.DataFormat)
	cols := opts.Columns.WithDefaults()

	switch {
	case opts.Demo:
		return dataset.Demo(), nil
	case opts.Path != "":
		return dataset.LoadFile(opts.Path, layout, cols)
	case opts.Data != nil:
		kind, err := dataset.KindFromName(opts.Filename)
		if err != nil {
			return nil, err
		}
		return dataset.Load(bytes.NewReader(opts.Data), kind, layout, cols)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "a data file is required")
	}
}

// Group validates the required columns of t and groups its observations in
// the configured order.
func Group(t *dataset.Table, opts Options) (*dataset.Grouped, error) {
	obs, err := t.Observations(opts.Columns.WithDefaults())
	if err != nil {
		return nil, err
	}
	order, err := dataset.ParseOrder(opts.Order)
	if err != nil {
		return nil, err
	}
	return dataset.Group(obs, order)
}

// MarshalTable serializes a table for hashing and caching.
func MarshalTable(t *dataset.Table) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize table")
	}
	return data, nil
}
