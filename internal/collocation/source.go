package collocation

// Side selects which half of a collocated pair table a CollocationMask
// query targets.
type Side string

const (
	Left  Side = "a"
	Right Side = "b"
)

// IndexWindow bounds a collocation_index query to [Min, Max], inclusive.
// A nil window means unbounded.
type IndexWindow struct {
	Min, Max int64
}

// Query describes one collocation-table lookup: load every pair whose
// source_product_<side> matches sourceProduct, optionally windowed by
// collocation_index.
type Query struct {
	SourceProduct string
	Side          Side
	Window        *IndexWindow
}

// Source is the external tabular collocation input's loading contract: a
// reader whose only obligation to the core is to deliver a sorted
// CollocationMask for a given query (§6).
type Source interface {
	Load(q Query) (*Mask, error)
}

// MemorySource is an in-memory Source, mostly for tests and for readers
// that have already materialized a pair table (e.g. from a prior SQL or
// file load).
type MemorySource struct {
	rows map[string][]sourceRow
}

type sourceRow struct {
	collocationIndex          int64
	sourceProductA, sourceProductB string
	sampleIndexA, sampleIndexB     int64
}

// NewMemorySource builds an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{rows: make(map[string][]sourceRow)}
}

// AddRow registers one collocation-table row, keyed internally by both
// sides' source product names.
func (s *MemorySource) AddRow(collocationIndex int64, productA, productB string, sampleA, sampleB int64) {
	row := sourceRow{collocationIndex, productA, productB, sampleA, sampleB}
	s.rows[productA] = append(s.rows[productA], row)
	if productB != productA {
		s.rows[productB] = append(s.rows[productB], row)
	}
}

func (s *MemorySource) Load(q Query) (*Mask, error) {
	var pairs []Pair
	for _, row := range s.rows[q.SourceProduct] {
		var product, sample int64
		switch q.Side {
		case Left:
			if row.sourceProductA != q.SourceProduct {
				continue
			}
			product, sample = row.collocationIndex, row.sampleIndexA
		case Right:
			if row.sourceProductB != q.SourceProduct {
				continue
			}
			product, sample = row.collocationIndex, row.sampleIndexB
		}
		if q.Window != nil && (product < q.Window.Min || product > q.Window.Max) {
			continue
		}
		pairs = append(pairs, Pair{CollocationIndex: product, SampleIndex: sample})
	}
	return New(pairs, BySampleIndex), nil
}
