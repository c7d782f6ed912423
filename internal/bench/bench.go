// Package bench measures encode throughput for the subword bench command.
package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and token counts for one pass over the inputs.
type RunResult struct {
	Index      int
	Cold       bool // true for the first run (cold caches)
	Duration   time.Duration
	Tokens     int
	Throughput float64 // tokens per second
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min            time.Duration
	Max            time.Duration
	Mean           time.Duration
	MeanThroughput float64
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}

	mn, mx := durations[0], durations[0]

	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}

	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Summarize computes Stats over runs, including the mean throughput.
func Summarize(runs []RunResult) Stats {
	durations := make([]time.Duration, len(runs))
	for i, r := range runs {
		durations[i] = r.Duration
	}

	s := ComputeStats(durations)
	if len(runs) > 0 {
		var sum float64
		for _, r := range runs {
			sum += r.Throughput
		}
		s.MeanThroughput = sum / float64(len(runs))
	}

	return s
}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

// Encoder is the part of a tokenizer the benchmark exercises.
type Encoder interface {
	Encode(text string) ([]int, error)
}

// ErrNoInputs is returned when Run has nothing to encode.
var ErrNoInputs = errors.New("bench needs at least one input")

// Options controls Run.
type Options struct {
	Runs int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Run encodes every input once per run and records the elapsed time and the
// number of ids produced.
func Run(enc Encoder, inputs []string, opts Options) ([]RunResult, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	if opts.Runs < 1 {
		return nil, fmt.Errorf("runs must be >= 1, got %d", opts.Runs)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	runs := make([]RunResult, 0, opts.Runs)

	for i := range opts.Runs {
		start := now()
		tokens := 0

		for _, in := range inputs {
			ids, err := enc.Encode(in)
			if err != nil {
				return nil, fmt.Errorf("run %d: encode: %w", i+1, err)
			}
			tokens += len(ids)
		}

		elapsed := now().Sub(start)
		runs = append(runs, RunResult{
			Index:      i,
			Cold:       i == 0,
			Duration:   elapsed,
			Tokens:     tokens,
			Throughput: CalcThroughput(tokens, elapsed),
		})
	}

	return runs, nil
}

// CalcThroughput returns tokens per second.
// Returns 0 if elapsed is zero to avoid division by zero.
func CalcThroughput(tokens int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(tokens) / elapsed.Seconds()
}

// ---------------------------------------------------------------------------
// Throughput threshold gate
// ---------------------------------------------------------------------------

// CheckThroughputThreshold returns an error if mean throughput falls below
// minimum. A minimum of 0 disables the gate.
func CheckThroughputThreshold(mean, minimum float64) error {
	if minimum <= 0 {
		return nil
	}

	if mean < minimum {
		return fmt.Errorf("mean throughput %.0f tokens/s below threshold %.0f", mean, minimum)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %10s  %12s\n", "Run", "Cold", "MS", "Tokens", "Tokens/s")
	fmt.Fprintln(sb, strings.Repeat("-", 49))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.3f  %10d  %12.0f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			r.Tokens,
			r.Throughput,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 49))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %10s  %12s  (min)\n", "", "", ms(stats.Min), "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %10s  %12.0f  (mean)\n", "", "", ms(stats.Mean), "", stats.MeanThroughput)
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  %10s  %12s  (max)\n", "", "", ms(stats.Max), "", "")

	fmt.Fprint(w, sb.String())
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Tokens     int     `json:"tokens"`
	Throughput float64 `json:"tokens_per_second"`
}

type jsonStats struct {
	MinMS          float64 `json:"min_ms"`
	MeanMS         float64 `json:"mean_ms"`
	MaxMS          float64 `json:"max_ms"`
	MeanThroughput float64 `json:"mean_tokens_per_second"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:          ms(stats.Min),
			MeanMS:         ms(stats.Mean),
			MaxMS:          ms(stats.Max),
			MeanThroughput: stats.MeanThroughput,
		},
	}

	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			Tokens:     r.Tokens,
			Throughput: r.Throughput,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jr)
}
