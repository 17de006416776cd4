// Package poller runs the acquisition loop: one frame per interval,
// decoded and fanned out to the configured sinks. Transport and sinks
// are collaborators behind narrow interfaces; the loop owns the pacing
// and the shutdown flush.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/banshee-data/thermo.report/internal/k204"
)

// FrameSource produces one raw frame per query. Short or garbled
// frames are acceptable return values; they decode to a miss.
type FrameSource interface {
	QueryFrame(ctx context.Context) ([]byte, error)
}

// Sample is one successfully decoded cycle, as handed to every sink.
type Sample struct {
	Cycle     int
	Timestamp time.Time
	Elapsed   time.Duration
	Reading   k204.Reading
}

// Sink consumes decoded samples. Record errors are fatal for the run;
// Flush is called best-effort on the way out.
type Sink interface {
	Record(Sample) error
	Flush() error
}

// Poller drives the measurement loop.
type Poller struct {
	source   FrameSource
	sinks    []Sink
	interval time.Duration
	cycles   int // 0 = run until cancelled

	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Poller. cycles == 0 means unbounded.
func New(source FrameSource, interval time.Duration, cycles int, sinks ...Sink) *Poller {
	return &Poller{
		source:   source,
		sinks:    sinks,
		interval: interval,
		cycles:   cycles,
		sleep:    ctxSleep,
	}
}

// ctxSleep sleeps for d or until the context is cancelled, reporting
// whether the full sleep completed.
func ctxSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run executes the loop until the cycle budget is spent or the context
// is cancelled. A frame the decoder doesn't recognize is logged and
// skipped without breaking the cadence; a sink write failure or a
// transport fault ends the run. All sinks get a final best-effort
// flush regardless of how the run ends.
func (p *Poller) Run(ctx context.Context) (err error) {
	defer func() {
		for _, s := range p.sinks {
			if ferr := s.Flush(); ferr != nil {
				log.Printf("final flush failed: %v", ferr)
			}
		}
	}()

	start := time.Now()
	for cycle := 1; p.cycles == 0 || cycle <= p.cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycleStart := time.Now()

		frame, err := p.source.QueryFrame(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("transport failed on cycle %d: %w", cycle, err)
		}

		reading, derr := k204.Decode(frame)
		if derr != nil {
			log.Printf("#%-4d | no data received this cycle", cycle)
		} else {
			now := time.Now()
			s := Sample{
				Cycle:     cycle,
				Timestamp: now,
				Elapsed:   now.Sub(start),
				Reading:   reading,
			}
			for _, sink := range p.sinks {
				if err := sink.Record(s); err != nil {
					return fmt.Errorf("sink failed on cycle %d: %w", cycle, err)
				}
			}
			log.Print(consoleLine(s))
		}

		if p.cycles == 0 || cycle < p.cycles {
			// pace the next cycle: interval minus time spent, never negative
			if !p.sleep(ctx, p.interval-time.Since(cycleStart)) {
				return ctx.Err()
			}
		}
	}
	return nil
}

// consoleLine renders a sample the way it appears on the terminal:
//
//	#3    | 0:00:12 | T1: 23.5 | T2: -5.0 | T3: OL | T4: 100.0
func consoleLine(s Sample) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%-4d | %s", s.Cycle, FormatElapsed(s.Elapsed))
	for i, v := range s.Reading.Channels {
		fmt.Fprintf(&b, " | %s: %s", k204.ChannelLabel(i), v)
	}
	return b.String()
}

// FormatElapsed renders a duration as H:MM:SS wall-clock runtime.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
