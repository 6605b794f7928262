package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// DefaultHDIProb is the interval mass used when Options.HDIProb is zero.
const DefaultHDIProb = 0.94

// Options controls Summarize.
type Options struct {
	// HDIProb is the probability mass of the highest-density interval.
	// Zero means DefaultHDIProb.
	HDIProb float64 `json:"hdi_prob"`

	// VarNames restricts the summary to these variables. Empty means all.
	VarNames []ir.VariableRef `json:"var_names,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.HDIProb == 0 {
		o.HDIProb = DefaultHDIProb
	}
	return o
}

// Key returns a stable content hash of the options, for caching.
// Variable order and repeats do not change the key, as they do not change
// the summary.
func (o Options) Key() string {
	o = o.withDefaults()
	ids := make([]string, len(o.VarNames))
	for i, ref := range o.VarNames {
		ids[i] = ref.ID()
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	data := fmt.Sprintf(`{"hdi_prob":%s,"var_ids":["%s"]}`,
		strconv.FormatFloat(o.HDIProb, 'g', -1, 64), strings.Join(ids, `","`))
	return ir.SummaryKey([]byte(data))
}

// Stat is a statistic that may be NaN. It encodes NaN and infinities as
// JSON null.
type Stat float64

// MarshalJSON implements json.Marshaler.
func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

// Row holds the statistics of one scalar element of a variable.
type Row struct {
	Variable ir.VariableRef `json:"variable"`
	Element  int            `json:"element"`
	Label    string         `json:"label"`
	Mean     Stat           `json:"mean"`
	SD       Stat           `json:"sd"`
	HDILower Stat           `json:"hdi_lower"`
	HDIUpper Stat           `json:"hdi_upper"`
	MCSEMean Stat           `json:"mcse_mean"`
	MCSESD   Stat           `json:"mcse_sd"`
	ESSBulk  Stat           `json:"ess_bulk"`
	ESSTail  Stat           `json:"ess_tail"`
	RHat     Stat           `json:"r_hat"`
}

// Summary is the result of Summarize.
type Summary struct {
	HDIProb float64 `json:"hdi_prob"`
	Chains  int     `json:"chains"`
	Draws   int     `json:"draws"`
	Rows    []Row   `json:"rows"`
}

// Summarize computes one Row per scalar element of every selected variable.
// Rows are ordered by variable display form, then element. Variables are
// processed concurrently; the store is read-only so no locking is needed.
//
// Unknown VarNames fail with a samples KEY_NOT_FOUND error.
func Summarize(ctx context.Context, s *samples.Store, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	if opts.HDIProb <= 0 || opts.HDIProb >= 1 {
		return nil, fmt.Errorf("hdi probability must be in (0, 1), got %v", opts.HDIProb)
	}

	refs := opts.VarNames
	if len(refs) == 0 {
		refs = s.Keys()
	} else {
		refs = append([]ir.VariableRef(nil), refs...)
		ir.SortRefs(refs)
		refs = slices.CompactFunc(refs, ir.VariableRef.Equal)
		for _, ref := range refs {
			if !s.Contains(ref) {
				_, err := s.Get(ref)
				return nil, fmt.Errorf("summarize: %w", err)
			}
		}
	}

	perVar := make([][]Row, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := summarizeVariable(s, ref, opts.HDIProb)
			if err != nil {
				return fmt.Errorf("summarize %s: %w", ref, err)
			}
			perVar[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Summary{
		HDIProb: opts.HDIProb,
		Chains:  s.NumChains(),
		Draws:   s.NumDraws(false),
	}
	for _, rows := range perVar {
		out.Rows = append(out.Rows, rows...)
	}
	return out, nil
}

func summarizeVariable(s *samples.Store, ref ir.VariableRef, hdiProb float64) ([]Row, error) {
	shape, err := s.EventShape(ref)
	if err != nil {
		return nil, err
	}
	size, err := s.EventSize(ref)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, size)
	for elem := 0; elem < size; elem++ {
		chains, err := s.ChainDraws(ref, elem)
		if err != nil {
			return nil, err
		}
		row, err := SummarizeChains(chains, hdiProb)
		if err != nil {
			return nil, err
		}
		row.Variable = ref
		row.Element = elem
		row.Label = elementLabel(ref, shape, elem)
		rows = append(rows, row)
	}
	return rows, nil
}

// SummarizeChains computes the statistics for one scalar quantity laid out
// as [chain][draw]. Variable, Element and Label are left empty.
func SummarizeChains(chains [][]float64, hdiProb float64) (Row, error) {
	flat := flatten(chains)
	lo, hi, err := HDI(chains, hdiProb)
	if err != nil {
		return Row{}, err
	}

	mean, sd := math.NaN(), math.NaN()
	if len(flat) > 0 {
		mean = stat.Mean(flat, nil)
	}
	if len(flat) > 1 {
		sd = stat.StdDev(flat, nil)
	}

	return Row{
		Mean:     Stat(mean),
		SD:       Stat(sd),
		HDILower: Stat(lo),
		HDIUpper: Stat(hi),
		MCSEMean: Stat(MCSEMean(chains)),
		MCSESD:   Stat(MCSESD(chains)),
		ESSBulk:  Stat(ESSBulk(chains)),
		ESSTail:  Stat(ESSTail(chains)),
		RHat:     Stat(RHat(chains)),
	}, nil
}

// elementLabel renders ref plus a multi-index for non-scalar variables,
// e.g. weights()[1,0].
func elementLabel(ref ir.VariableRef, shape []int, elem int) string {
	if len(shape) == 0 {
		return ref.String()
	}
	idx := make([]string, len(shape))
	for axis := len(shape) - 1; axis >= 0; axis-- {
		idx[axis] = strconv.Itoa(elem % shape[axis])
		elem /= shape[axis]
	}
	return ref.String() + "[" + strings.Join(idx, ",") + "]"
}
