package diagnostics

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
)

// DefaultRoundTo is the number of decimals used by WriteText when roundTo < 0.
const DefaultRoundTo = 2

// HDIColumns returns the column names of the interval bounds, e.g.
// "hdi_3%" and "hdi_97%" for prob 0.94.
func HDIColumns(prob float64) (lower, upper string) {
	tail := (1 - prob) / 2 * 100
	return "hdi_" + strconv.FormatFloat(tail, 'g', 4, 64) + "%",
		"hdi_" + strconv.FormatFloat(100-tail, 'g', 4, 64) + "%"
}

// WriteText renders the summary as an aligned table. ESS columns are
// rendered as whole numbers.
func (s *Summary) WriteText(w io.Writer, roundTo int) error {
	if roundTo < 0 {
		roundTo = DefaultRoundTo
	}
	lo, hi := HDIColumns(s.HDIProb)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"", "mean", "sd", lo, hi, "mcse_mean", "mcse_sd", "ess_bulk", "ess_tail", "r_hat"}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, r := range s.Rows {
		cells := []string{
			r.Label,
			formatStat(r.Mean, roundTo),
			formatStat(r.SD, roundTo),
			formatStat(r.HDILower, roundTo),
			formatStat(r.HDIUpper, roundTo),
			formatStat(r.MCSEMean, roundTo),
			formatStat(r.MCSESD, roundTo),
			formatStat(r.ESSBulk, 0),
			formatStat(r.ESSTail, 0),
			formatStat(r.RHat, roundTo),
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func formatStat(s Stat, decimals int) string {
	f := float64(s)
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}
