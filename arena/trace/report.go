package trace

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row is one line of a replay report. Err is set for traces that failed.
type Row struct {
	Result *Result
	Name   string
	Err    error
}

// WriteReport prints a per-trace table followed by a total line. Numbers are
// grouped according to lang.
func WriteReport(w io.Writer, rows []Row, lang language.Tag) error {
	p := message.NewPrinter(lang)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	p.Fprintf(tw, "trace\tvalid\tutil\tops\tsecs\tKops/s\t\n")

	var (
		ops     int
		elapsed float64
		utilSum float64
		ok      int
	)
	for _, r := range rows {
		name := r.Name
		if name == "" && r.Result != nil {
			name = r.Result.Name
		}
		if r.Err != nil || r.Result == nil {
			p.Fprintf(tw, "%s\tno\t-\t-\t-\t-\t\n", name)
			continue
		}
		res := r.Result
		p.Fprintf(tw, "%s\tyes\t%.1f%%\t%d\t%.6f\t%.0f\t\n",
			name, 100*res.Utilization(), res.Ops, res.Elapsed.Seconds(), res.Throughput()/1000)
		ops += res.Ops
		elapsed += res.Elapsed.Seconds()
		utilSum += res.Utilization()
		ok++
	}

	if ok > 0 {
		kops := 0.0
		if elapsed > 0 {
			kops = float64(ops) / elapsed / 1000
		}
		p.Fprintf(tw, "total\t%d/%d\t%.1f%%\t%d\t%.6f\t%.0f\t\n",
			ok, len(rows), 100*utilSum/float64(ok), ops, elapsed, kops)
	}
	return tw.Flush()
}
