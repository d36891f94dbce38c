package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/paveg/windowagg"
	"github.com/paveg/windowagg/internal/monitoring"
	"github.com/paveg/windowagg/internal/window"
)

const shutdownTimeout = 5 * time.Second

func NewBenchCommand() *cobra.Command {
	var (
		rows        int
		partitions  int
		size        int
		metricsAddr string
	)

	command := &cobra.Command{
		Use:   "bench",
		Short: "Times every window mode over a generated table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 1 {
				return fmt.Errorf("--rows must be >= 1, got %d", rows)
			}
			if partitions < 1 {
				return fmt.Errorf("--partitions must be >= 1, got %d", partitions)
			}

			reg := prometheus.NewRegistry()
			collector := monitoring.NewPrometheusCollector(reg)
			e, cfg, err := newEngine(window.WithMetrics(collector))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows=%d partitions=%d window=%d parallel_threshold=%d\n",
				rows, partitions, size, cfg.ParallelThreshold)
			if err := runBench(out, e, rows, partitions, size); err != nil {
				return err
			}

			summary := collector.GetSummary()
			fmt.Fprintf(out, "operations=%d parallel=%d rows=%d total=%v\n",
				summary.TotalOperations, summary.ParallelOperations, summary.TotalRows, summary.TotalDuration)

			if metricsAddr == "" {
				return nil
			}
			return serveMetrics(cmd.Context(), out, monitoring.NewServer(collector, reg, metricsAddr), metricsAddr)
		},
	}
	command.Flags().IntVar(&rows, "rows", 1_000_000, "Number of rows to generate")
	command.Flags().IntVar(&partitions, "partitions", 100, "Number of distinct partition keys")
	command.Flags().IntVar(&size, "window", 20, "Rolling window size")
	command.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve the run's metrics on this address until interrupted")
	return command
}

func runBench(out io.Writer, e *windowagg.Engine, rows, partitions, size int) error {
	mem := memory.NewGoAllocator()

	keys := make([]int64, rows)
	values := make([]float64, rows)
	for i := range rows {
		keys[i] = int64(i % partitions)
		values[i] = float64((i*7919)%1000) / 10
	}
	key := windowagg.NewColumn("key", keys, mem)
	defer key.Release()
	value := windowagg.NewColumn("value", values, mem)
	defer value.Release()

	tbl, err := windowagg.NewTable(key, value)
	if err != nil {
		return err
	}
	w := windowagg.NewWindow().PartitionBy("key")

	cases := []struct {
		name string
		run  func() (*windowagg.Result, error)
	}{
		{"transform/mean", func() (*windowagg.Result, error) { return e.Transform(tbl, "value", windowagg.Mean(), w) }},
		{"rolling/sum", func() (*windowagg.Result, error) {
			return e.Rolling(tbl, "value", windowagg.Sum(), windowagg.NewWindow().PartitionBy("key").Rows(size))
		}},
		{"cumulative/max", func() (*windowagg.Result, error) { return e.Cumulative(tbl, "value", windowagg.Max(), w) }},
		{"rank/average", func() (*windowagg.Result, error) { return e.Rank(tbl, "value", windowagg.RankAverage, w) }},
	}

	for _, c := range cases {
		start := time.Now()
		res, err := c.run()
		if err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		elapsed := time.Since(start)
		res.Release()
		fmt.Fprintf(out, "%-16s %12v %10.0f rows/s\n", c.name, elapsed, float64(rows)/elapsed.Seconds())
	}
	return nil
}

func serveMetrics(ctx context.Context, out io.Writer, server *monitoring.Server, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	fmt.Fprintf(out, "serving metrics on %s, interrupt to exit\n", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
