// Package dataset turns delimited text into feature vectors and targets.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sgdreg/ml"
)

// Dataset holds parallel feature rows and targets. All rows share one width.
type Dataset struct {
	Features [][]float64
	Targets  []float64
}

type Options struct {
	// Encoding of the source: utf-8 (default), utf-16, gbk or latin1.
	Encoding string
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Targets)
}

func (d *Dataset) FeatureCount() int {
	if d == nil || len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Load reads a CSV file where the last column of every row is the target.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dataset: %v", ml.ErrIO, err)
	}
	defer f.Close()
	return Read(f, opts)
}

func Read(r io.Reader, opts Options) (*Dataset, error) {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	ds := &Dataset{}
	width := -1
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		values, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ml.ErrMalformedRow, lineNo, err)
		}
		if width == -1 {
			width = len(values)
		} else if len(values) != width {
			return nil, fmt.Errorf("%w: line %d: expected %d values, got %d", ml.ErrMalformedRow, lineNo, width, len(values))
		}
		n := len(values)
		ds.Features = append(ds.Features, values[:n-1:n-1])
		ds.Targets = append(ds.Targets, values[n-1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read dataset: %v", ml.ErrIO, err)
	}
	return ds, nil
}

func parseRow(line string) ([]float64, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return nil, fmt.Errorf("need at least one feature and one target, got %d value(s)", len(fields))
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %q is not a number", i+1, strings.TrimSpace(field))
		}
		values[i] = v
	}
	return values, nil
}

// LookupEncoding maps an encoding name to a decoder source. UTF-8 needs no decoding and returns nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Split shuffles row order with rng and moves a holdout fraction into test.
// A holdout outside (0, 1) keeps every row in train.
func (d *Dataset) Split(holdout float64, rng *rand.Rand) (train, test *Dataset) {
	n := d.Len()
	if holdout <= 0 || holdout >= 1 || n == 0 {
		return &Dataset{Features: d.Features, Targets: d.Targets}, &Dataset{}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	split := n - int(float64(n)*holdout)
	train, test = &Dataset{}, &Dataset{}
	for i, idx := range order {
		dst := train
		if i >= split {
			dst = test
		}
		dst.Features = append(dst.Features, d.Features[idx])
		dst.Targets = append(dst.Targets, d.Targets[idx])
	}
	return train, test
}
