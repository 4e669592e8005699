package pool

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func benchSource(n int, work time.Duration) Source[int] {
	return FromFunc(func(i int) (Task[int], bool) {
		if i >= n {
			return nil, false
		}
		return func(context.Context) (int, error) {
			if work > 0 {
				time.Sleep(work)
			}
			return i, nil
		}, true
	})
}

// BenchmarkPool_Run benchmarks a full run with different concurrency limits
func BenchmarkPool_Run(b *testing.B) {
	for _, limit := range []int{1, 2, 4, 8, 16} {
		b.Run(fmt.Sprintf("limit_%d", limit), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				p, _ := New(benchSource(100, 100*time.Microsecond), limit)
				b.StartTimer()

				p.Run(context.Background())
			}
		})
	}
}

// BenchmarkPool_RunParallel benchmarks independent pools running concurrently
func BenchmarkPool_RunParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, _ := New(benchSource(10, 0), 4)
			p.Run(context.Background())
		}
	})
}

// BenchmarkPool_OnSettle benchmarks the settle hook overhead
func BenchmarkPool_OnSettle(b *testing.B) {
	b.Run("WithHook", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			p, _ := New(benchSource(50, 0), 4, WithOnSettle(func(int, error, Stats) {}))
			p.Run(context.Background())
		}
	})

	b.Run("WithoutHook", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			p, _ := New(benchSource(50, 0), 4)
			p.Run(context.Background())
		}
	})
}

// BenchmarkSummarize benchmarks outcome aggregation
func BenchmarkSummarize(b *testing.B) {
	outcomes := make([]Outcome[int], 1000)
	for i := range outcomes {
		outcomes[i] = Outcome[int]{Index: i, Value: i, Duration: time.Duration(i) * time.Millisecond}
		if i%2 == 0 {
			outcomes[i].Err = fmt.Errorf("error %d", i)
		}
	}

	b.Run("FilterFailed", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			FilterFailed(outcomes)
		}
	})

	b.Run("Summarize", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Summarize(outcomes)
		}
	})
}
