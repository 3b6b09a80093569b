package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Loader reads a review file format into a raw DataFrame.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader) dataframe.DataFrame
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupportedFormat indicates no registered loader accepts the file.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// nullTokens are the cell values read as missing.
var nullTokens = []string{"", "NA", "NaN", "nan", "<nil>", "null"}

var columnTypes = map[string]series.Type{
	ColCountry:     series.String,
	ColDescription: series.String,
	ColPoints:      series.Float,
	ColPrice:       series.Float,
	ColProvince:    series.String,
	ColRegion:      series.String,
	ColVariety:     series.String,
	ColWinery:      series.String,
}

func loadOptions(extra ...dataframe.LoadOption) []dataframe.LoadOption {
	opts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(columnTypes),
		dataframe.NaNValues(nullTokens),
	}
	return append(opts, extra...)
}

type delimitedLoader struct {
	delim rune
	exts  []string
}

func (l delimitedLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	for _, ext := range l.exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (l delimitedLoader) Load(r io.Reader) dataframe.DataFrame {
	return dataframe.ReadCSV(r, loadOptions(dataframe.WithDelimiter(l.delim))...)
}

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func (jsonLoader) Load(r io.Reader) dataframe.DataFrame {
	return dataframe.ReadJSON(r, loadOptions()...)
}

// LoadFile picks a loader by filename, reads the file and projects it onto
// the review columns. Extra columns (designation, taster_name, ...) are dropped.
func LoadFile(path string) (*Dataset, error) {
	var loader Loader
	for _, l := range registry {
		if l.CanLoad(path) {
			loader = l
			break
		}
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return project(loader.Load(f))
}

// Read loads from r using the loader registered for filename.
func Read(r io.Reader, filename string) (*Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(filename) {
			return project(l.Load(r))
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

func project(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("read dataset: %w", df.Err)
	}
	raw := &Dataset{df: df}
	for _, c := range RequiredColumns {
		if !raw.Has(c) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	if !raw.Has(ColRegion) {
		blank := make([]string, df.Nrow())
		df = df.Mutate(series.New(blank, series.String, ColRegion))
	}
	return New(df.Select(Columns))
}

func init() {
	Register(delimitedLoader{delim: ',', exts: []string{".csv"}})
	Register(delimitedLoader{delim: '\t', exts: []string{".tsv", ".tab"}})
	Register(jsonLoader{})
}
