package window

import (
	"fmt"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/windowagg/internal/config"
	"github.com/paveg/windowagg/internal/testutil"
)

func benchmarkEngines(b *testing.B, run func(e *Engine, tbl *testutil.TestTable) error) {
	b.Helper()
	mem := memory.NewGoAllocator()

	for _, rows := range []int{10_000, 100_000} {
		tbl := testutil.CreateLargeTable(b, mem, rows, 64)

		for _, parallel := range []bool{false, true} {
			cfg := config.NewConfig()
			if !parallel {
				cfg.ParallelThreshold = math.MaxInt
			} else {
				cfg.ParallelThreshold = 1
			}
			e := NewEngine(WithAllocator(mem), WithConfig(cfg))

			b.Run(fmt.Sprintf("rows=%d/parallel=%t", rows, parallel), func(b *testing.B) {
				b.ReportAllocs()
				for range b.N {
					if err := run(e, tbl); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
		tbl.Release()
	}
}

func BenchmarkTransform(b *testing.B) {
	benchmarkEngines(b, func(e *Engine, tbl *testutil.TestTable) error {
		out, err := e.Transform(tbl.Table, "value", Mean(), New().PartitionBy("key"))
		if err == nil {
			out.Release()
		}
		return err
	})
}

func BenchmarkRolling(b *testing.B) {
	benchmarkEngines(b, func(e *Engine, tbl *testutil.TestTable) error {
		out, err := e.Rolling(tbl.Table, "value", Sum(), New().PartitionBy("key").Rows(20))
		if err == nil {
			out.Release()
		}
		return err
	})
}

func BenchmarkCumulative(b *testing.B) {
	benchmarkEngines(b, func(e *Engine, tbl *testutil.TestTable) error {
		out, err := e.Cumulative(tbl.Table, "value", Max(), New().PartitionBy("key"))
		if err == nil {
			out.Release()
		}
		return err
	})
}

func BenchmarkRank(b *testing.B) {
	benchmarkEngines(b, func(e *Engine, tbl *testutil.TestTable) error {
		out, err := e.Rank(tbl.Table, "value", RankAverage, New().PartitionBy("key"))
		if err == nil {
			out.Release()
		}
		return err
	})
}
