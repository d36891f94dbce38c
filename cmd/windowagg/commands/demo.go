package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/paveg/windowagg"
)

func NewDemoCommand() *cobra.Command {
	var (
		size       int
		rankMethod string
	)

	command := &cobra.Command{
		Use:   "demo",
		Short: "Runs every window mode over a small sample table",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := windowagg.ParseRankMethod(rankMethod)
			if err != nil {
				return err
			}
			e, _, err := newEngine()
			if err != nil {
				return err
			}
			return runDemo(cmd.OutOrStdout(), e, size, method)
		},
	}
	command.Flags().IntVar(&size, "rows", 2, "Rolling window size")
	command.Flags().StringVar(&rankMethod, "rank", "dense", "Rank method: average, min, max, first or dense")
	return command
}

func runDemo(out io.Writer, e *windowagg.Engine, size int, method windowagg.RankMethod) error {
	mem := memory.NewGoAllocator()
	category := windowagg.NewColumn("Category", []string{"A", "A", "B", "B", "A", "B"}, mem)
	defer category.Release()
	value := windowagg.NewColumn("Value", []int64{10, 15, 20, 25, 12, 18}, mem)
	defer value.Release()

	tbl, err := windowagg.NewTable(category, value)
	if err != nil {
		return err
	}
	byCategory := windowagg.NewWindow().PartitionBy("Category")

	fmt.Fprintln(out, tbl)

	steps := []struct {
		label string
		run   func() (*windowagg.Result, error)
	}{
		{
			label: fmt.Sprintf("rolling mean, %d rows", size),
			run: func() (*windowagg.Result, error) {
				return e.Rolling(tbl, "Value", windowagg.Mean(), windowagg.NewWindow().Rows(size).MinPeriods(1))
			},
		},
		{
			label: "range by Category",
			run: func() (*windowagg.Result, error) {
				return e.Transform(tbl, "Value", windowagg.Range(), byCategory)
			},
		},
		{
			label: "running sum by Category",
			run: func() (*windowagg.Result, error) {
				return e.Cumulative(tbl, "Value", windowagg.Sum(), byCategory)
			},
		},
		{
			label: fmt.Sprintf("%s rank by Category", method),
			run: func() (*windowagg.Result, error) {
				return e.Rank(tbl, "Value", method, byCategory)
			},
		},
	}

	for _, step := range steps {
		res, err := step.run()
		if err != nil {
			return fmt.Errorf("%s: %w", step.label, err)
		}
		fmt.Fprintf(out, "%-26s %s\n", step.label+":", formatResult(res))
		res.Release()
	}
	return nil
}

func formatResult(res *windowagg.Result) string {
	parts := make([]string, res.Len())
	for i := range parts {
		v, ok := res.Value(i)
		if !ok {
			parts[i] = "null"
			continue
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
