package macro

import "sync/atomic"

// Result is the outcome of a gated run.
type Result struct {
	OK      bool `json:"ok"`
	Skipped bool `json:"skipped,omitempty"`
}

// Gate guards a Simulator the way the tray toggles expect: nothing runs while
// the script is inactive, clicks need click automation enabled, and a run is
// skipped while another run of the same kind is in flight.
type Gate struct {
	sim *Simulator

	scriptActive atomic.Bool
	clickActive  atomic.Bool

	moving   atomic.Bool
	clicking atomic.Bool
}

// NewGate wraps sim. Both toggles start enabled.
func NewGate(sim *Simulator) *Gate {
	g := &Gate{sim: sim}
	g.scriptActive.Store(true)
	g.clickActive.Store(true)
	return g
}

// Simulator returns the wrapped simulator for ungated runs.
func (g *Gate) Simulator() *Simulator { return g.sim }

func (g *Gate) SetScriptActive(v bool) { g.scriptActive.Store(v) }
func (g *Gate) SetClickActive(v bool)  { g.clickActive.Store(v) }
func (g *Gate) ScriptActive() bool     { return g.scriptActive.Load() }
func (g *Gate) ClickActive() bool      { return g.clickActive.Load() }

// Move runs Simulator.Move unless gated.
func (g *Gate) Move(sensitivity int, times, rateMs uint) Result {
	if !g.scriptActive.Load() {
		return Result{Skipped: true}
	}
	if !g.moving.CompareAndSwap(false, true) {
		return Result{Skipped: true}
	}
	defer g.moving.Store(false)

	return Result{OK: g.sim.Move(sensitivity, times, rateMs)}
}

// Click runs Simulator.Click unless gated.
func (g *Gate) Click(times, rateMs uint) Result {
	if !g.scriptActive.Load() || !g.clickActive.Load() {
		return Result{Skipped: true}
	}
	if !g.clicking.CompareAndSwap(false, true) {
		return Result{Skipped: true}
	}
	defer g.clicking.Store(false)

	return Result{OK: g.sim.Click(times, rateMs)}
}
