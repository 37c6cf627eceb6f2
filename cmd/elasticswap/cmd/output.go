package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

// maxCurveRows bounds the learning curve printed by runs show.
const maxCurveRows = 20

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderLine(true)
	t.SetColumnSeparator(" ")
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

// renderRuns prints one row per run.
//
//	ID        VARIANT   ADVISOR  SOURCE  INSTANCES  ACCURACY  FRONT  MIN-MAX  GROWS  SHRINKS  SWAPS  DRIFTS  SECONDS
func renderRuns(w io.Writer, runs []*ports.RunRecord) {
	t := newTable(w, []string{"ID", "Variant", "Advisor", "Source", "Instances", "Accuracy",
		"Front", "Min-Max", "Grows", "Shrinks", "Swaps", "Drifts", "Seconds"})
	for _, r := range runs {
		t.Append([]string{
			shortID(r.ID),
			r.Variant,
			dash(r.Advisor),
			r.Source,
			strconv.FormatUint(r.Instances, 10),
			fmt.Sprintf("%.4f", r.Accuracy),
			strconv.Itoa(r.FrontSize),
			fmt.Sprintf("%d-%d", r.MinFrontSize, r.MaxFrontSize),
			strconv.FormatUint(r.Grows, 10),
			strconv.FormatUint(r.Shrinks, 10),
			strconv.FormatUint(r.Swaps, 10),
			strconv.FormatUint(r.Drifts, 10),
			fmt.Sprintf("%.1f", r.Duration),
		})
	}
	t.Render()
}

// renderRunDetail prints a run summary followed by its learning curve,
// thinned to at most maxCurveRows points.
func renderRunDetail(w io.Writer, r *ports.RunRecord) {
	fmt.Fprintf(w, "%sRun %s%s\n", colorBold, r.ID, colorReset)
	fmt.Fprintf(w, "  Source:     %s\n", r.Source)
	fmt.Fprintf(w, "  Variant:    %s (advisor %s)\n", r.Variant, dash(r.Advisor))
	fmt.Fprintf(w, "  Started:    %s (%.1fs)\n", r.Started.Format("2006-01-02 15:04:05"), r.Duration)
	fmt.Fprintf(w, "  Accuracy:   %.4f (%d/%d)\n", r.Accuracy, r.Correct, r.Instances)
	fmt.Fprintf(w, "  Front:      %d (min %d, max %d), candidates %d\n", r.FrontSize, r.MinFrontSize, r.MaxFrontSize, r.CandidateSize)
	fmt.Fprintf(w, "  Events:     %d grows, %d shrinks, %d swaps, %d drifts\n", r.Grows, r.Shrinks, r.Swaps, r.Drifts)

	if len(r.Curve) == 0 {
		return
	}
	fmt.Fprintln(w)
	t := newTable(w, []string{"Instances", "Accuracy", "Window", "Front"})
	for _, p := range thinCurve(r.Curve, maxCurveRows) {
		t.Append([]string{
			strconv.FormatUint(p.Instances, 10),
			fmt.Sprintf("%.4f", p.Accuracy),
			fmt.Sprintf("%.4f", p.WindowAccuracy),
			strconv.Itoa(p.FrontSize),
		})
	}
	t.Render()
}

// thinCurve keeps n evenly spaced points, always including the last.
func thinCurve(curve []ports.CurvePoint, n int) []ports.CurvePoint {
	if len(curve) <= n || n < 2 {
		return curve
	}
	out := make([]ports.CurvePoint, 0, n)
	step := float64(len(curve)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, curve[int(float64(i)*step+0.5)])
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
