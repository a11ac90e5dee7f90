// pkg/replay/pacing.go
package replay

import (
	"time"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

// Recorded timestamps are either small session-relative seconds or epoch
// milliseconds. Values above this threshold are treated as epoch ms.
const epochMSThreshold = 100_000_000_000

// pacer reconstructs humanlike delays from recorded epoch-millisecond
// timestamps. Gaps are capped so replay never stalls for the full recorded
// duration, and near-simultaneous events produce no sleep at all.
type pacer struct {
	cfg  config.ReplayConfig
	prev *float64
}

func newPacer(cfg config.ReplayConfig) *pacer {
	return &pacer{cfg: cfg}
}

// delayFor returns how long to sleep before the action carrying ts, and
// advances the pacer's state. Session-relative timestamps yield no delay.
func (p *pacer) delayFor(ts float64) time.Duration {
	if ts <= epochMSThreshold {
		return 0
	}

	var delay time.Duration
	if p.prev != nil && ts >= *p.prev {
		gap := time.Duration((ts - *p.prev) * float64(time.Millisecond))
		if gap > p.cfg.DelayCap {
			gap = p.cfg.DelayCap
		}
		if gap >= p.cfg.DelayMin {
			delay = gap
		}
	}

	t := ts
	p.prev = &t
	return delay
}
