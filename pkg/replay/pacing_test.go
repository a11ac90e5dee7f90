package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelrpa/kestrel-cli/internal/config"
)

func pacingConfig() config.ReplayConfig {
	return config.ReplayConfig{
		DelayMin: 200 * time.Millisecond,
		DelayCap: 2 * time.Second,
	}
}

func TestPacerCapsLongGaps(t *testing.T) {
	p := newPacer(pacingConfig())

	base := 1_700_000_000_000.0
	assert.Equal(t, time.Duration(0), p.delayFor(base), "first action has no predecessor")
	assert.Equal(t, 2*time.Second, p.delayFor(base+3500), "3.5s recorded gap is capped")
}

func TestPacerSkipsTinyGaps(t *testing.T) {
	p := newPacer(pacingConfig())

	base := 1_700_000_000_000.0
	p.delayFor(base)
	assert.Equal(t, time.Duration(0), p.delayFor(base+50), "gaps under the minimum are dropped")
	// The 50ms event still advanced the clock.
	assert.Equal(t, 500*time.Millisecond, p.delayFor(base+550))
}

func TestPacerPassesMidRangeGaps(t *testing.T) {
	p := newPacer(pacingConfig())

	base := 1_700_000_000_000.0
	p.delayFor(base)
	assert.Equal(t, 800*time.Millisecond, p.delayFor(base+800))
}

func TestPacerIgnoresSessionRelativeTimestamps(t *testing.T) {
	p := newPacer(pacingConfig())

	assert.Equal(t, time.Duration(0), p.delayFor(0.5))
	assert.Equal(t, time.Duration(0), p.delayFor(4.2))
	assert.Equal(t, time.Duration(0), p.delayFor(9.9))
}

func TestPacerIgnoresBackwardsTimestamps(t *testing.T) {
	p := newPacer(pacingConfig())

	base := 1_700_000_000_000.0
	p.delayFor(base)
	assert.Equal(t, time.Duration(0), p.delayFor(base-1000))
}
