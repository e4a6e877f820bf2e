package dorsum

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Summary describes how far a ridge strays from the mid-sagittal plane X = 0.
type Summary struct {
	Points    int     `json:"points"`
	MinHeight float64 `json:"min_height"`
	MaxHeight float64 `json:"max_height"`
	MeanX     float64 `json:"mean_x"`
	StdDevX   float64 `json:"stddev_x"`
	MaxAbsX   float64 `json:"max_abs_x"`
}

// Summarize computes the lateral deviation statistics of a ridge.
func Summarize(ridge Ridge) (Summary, error) {
	if len(ridge) == 0 {
		return Summary{}, errors.New("cannot summarize an empty ridge")
	}
	xs := ridge.Xs()
	mean, err := stats.Mean(xs)
	if err != nil {
		return Summary{}, errors.Wrap(err, "mean lateral deviation")
	}
	sd, err := stats.StandardDeviation(xs)
	if err != nil {
		return Summary{}, errors.Wrap(err, "lateral deviation spread")
	}
	maxAbs, err := stats.Max(lo.Map(xs, func(x float64, _ int) float64 { return math.Abs(x) }))
	if err != nil {
		return Summary{}, errors.Wrap(err, "largest lateral deviation")
	}
	return Summary{
		Points:    len(ridge),
		MinHeight: ridge[0].Height,
		MaxHeight: ridge[len(ridge)-1].Height,
		MeanX:     mean,
		StdDevX:   sd,
		MaxAbsX:   maxAbs,
	}, nil
}

// String prints the summary as a two column table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Measure", "Value"})
	t.AppendRows([]table.Row{
		{"Ridge points", s.Points},
		{"Heights", fmt.Sprintf("%.0f to %.0f", s.MinHeight, s.MaxHeight)},
		{"Mean X", fmt.Sprintf("%.3f", s.MeanX)},
		{"StdDev X", fmt.Sprintf("%.3f", s.StdDevX)},
		{"Max |X|", fmt.Sprintf("%.3f", s.MaxAbsX)},
	})
	return t.Render()
}

// String prints one row per ridge point.
func (r Ridge) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Height", "X", "Y"})
	for i, p := range r {
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.0f", p.Height),
			fmt.Sprintf("%.3f", p.X),
			fmt.Sprintf("%.3f", p.Y),
		})
	}
	return t.Render()
}
