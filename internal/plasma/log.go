package plasma

// EvalLog accumulates one Snapshot per rate-model call, in call order. It is
// owned by a single integration run: the integrator resets it before handing
// the derivative closure to the ODE driver, and the driver appends through
// that closure on every evaluation, accepted or rejected.
//
// A channel filter keeps the log from retaining bulky channels nobody asked
// for; dNzk and Prad are recorded by default.
type EvalLog struct {
	keep  map[string]struct{}
	snaps []Snapshot
}

// DefaultChannels is the recorded-channel set used when none is configured.
var DefaultChannels = []string{ChanPrad, ChanDeriv}

// NewEvalLog returns a log recording only the named channels. With no names,
// every channel present in a snapshot is kept.
func NewEvalLog(channels ...string) *EvalLog {
	l := &EvalLog{}
	if len(channels) > 0 {
		l.keep = make(map[string]struct{}, len(channels))
		for _, c := range channels {
			l.keep[c] = struct{}{}
		}
	}
	return l
}

// Append records the kept channels of one evaluation. Values are copied so
// the rate model may reuse its buffers.
func (l *EvalLog) Append(s Snapshot) {
	kept := make(Snapshot, len(s))
	for name, vals := range s {
		if l.keep != nil {
			if _, ok := l.keep[name]; !ok {
				continue
			}
		}
		c := make([]float64, len(vals))
		copy(c, vals)
		kept[name] = c
	}
	l.snaps = append(l.snaps, kept)
}

func (l *EvalLog) Len() int {
	return len(l.snaps)
}

func (l *EvalLog) At(i int) Snapshot {
	return l.snaps[i]
}

// Reset clears the log for the next run without releasing capacity.
func (l *EvalLog) Reset() {
	l.snaps = l.snaps[:0]
}

// Channels lists the channel names present in the first recorded snapshot.
// Every snapshot of a run carries the same channels, so this is the set the
// resampler iterates over.
func (l *EvalLog) Channels() []string {
	if len(l.snaps) == 0 {
		return nil
	}
	names := make([]string, 0, len(l.snaps[0]))
	for name := range l.snaps[0] {
		names = append(names, name)
	}
	return names
}

// StepAccounting aligns EvalLog entries to the caller's output grid. For the
// i-th requested output time, EvalCount[i] is the cumulative number of
// rate-model evaluations the driver had made when it reached that time, and
// InternalTime[i] is the internal solver time of the accepted step that
// covered it.
type StepAccounting struct {
	EvalCount    []int
	InternalTime []float64
}
