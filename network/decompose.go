package network

import (
	"fmt"
	"math"

	"github.com/gomo-dev/gomo/logger"
	"github.com/gomo-dev/gomo/solve"
)

// SequentialDecomposition converges a network with recycle loops by tearing
// streams: units run in topological order of the torn graph, tear streams
// start from guesses and are updated between sweeps until their residual
// drops below tolerance.
type SequentialDecomposition struct {
	opts    solve.Options
	tears   []*Arc
	guesses []guess
}

type guess struct {
	port        *Port
	member, key string
	val         float64
}

// NewSequentialDecomposition returns a driver with the given options.
func NewSequentialDecomposition(opts solve.Options) (*SequentialDecomposition, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &SequentialDecomposition{opts: opts}, nil
}

// SetTearSet fixes the tear arcs instead of selecting them heuristically.
func (sd *SequentialDecomposition) SetTearSet(arcs []*Arc) {
	sd.tears = append([]*Arc(nil), arcs...)
}

// SetScalarGuess seeds a scalar member of a tear destination port.
func (sd *SequentialDecomposition) SetScalarGuess(p *Port, member string, val float64) {
	sd.guesses = append(sd.guesses, guess{port: p, member: member, key: "", val: val})
}

// SetIndexedGuess seeds one index of an indexed member of a port.
func (sd *SequentialDecomposition) SetIndexedGuess(p *Port, member, key string, val float64) {
	sd.guesses = append(sd.guesses, guess{port: p, member: member, key: key, val: val})
}

// slotKey identifies one scalar slot of a tear arc.
type slotKey struct {
	member, key string
}

// tearState carries the iterates of one tear arc: x is the current guess,
// prevX/prevG the previous iterate and evaluation for Wegstein.
type tearState struct {
	x     map[slotKey]float64
	prevX map[slotKey]float64
	prevG map[slotKey]float64
	warm  bool
}

// Run sweeps the network to convergence. fn is invoked once per unit per
// sweep; when nil, units with an Initialize function run it.
func (sd *SequentialDecomposition) Run(net *Network, fn func(*Unit) error) (*solve.Results, error) {
	log := logger.Logger()
	res := solve.NewResults(net.name)
	fail := func(err error) (*solve.Results, error) {
		res.Termination = solve.Errored
		return res, err
	}

	if fn == nil {
		fn = func(u *Unit) error {
			if u.Initialize == nil {
				return nil
			}
			return u.Initialize(u)
		}
	}

	tears := sd.tears
	if len(tears) == 0 {
		covers, err := SelectTears(net)
		if err != nil {
			return fail(err)
		}
		if len(covers) > 0 {
			tears = covers[0]
		}
	}

	order, err := calculationOrder(net, tears)
	if err != nil {
		return fail(err)
	}

	for _, g := range sd.guesses {
		m, ok := g.port.byName[g.member]
		if !ok {
			return fail(fmt.Errorf("guess for unknown member %s on port %s.%s", g.member, g.port.unit.name, g.port.name))
		}
		slot, ok := m.slots[g.key]
		if !ok {
			return fail(fmt.Errorf("guess for unknown key %q of member %s on port %s.%s", g.key, g.member, g.port.unit.name, g.port.name))
		}
		if err := slot.SetValue(g.val); err != nil {
			return fail(fmt.Errorf("apply guess: %w", err))
		}
	}

	torn := make(map[*Arc]*tearState, len(tears))
	for _, a := range tears {
		st := &tearState{
			x:     make(map[slotKey]float64),
			prevX: make(map[slotKey]float64),
			prevG: make(map[slotKey]float64),
		}
		for _, m := range a.dst.members {
			for _, key := range m.keys {
				v, err := m.slots[key].Value()
				if err != nil {
					return fail(fmt.Errorf("tear arc %s: member %s[%s] needs a guess: %w", a.name, m.name, key, err))
				}
				st.x[slotKey{m.name, key}] = v
			}
		}
		torn[a] = st
	}

	log.Info().Str("network", net.name).Int("nbUnits", len(order)).Int("nbTears", len(tears)).
		Str("tearMethod", sd.opts.TearMethod).Msg("starting sequential decomposition")

	for iter := 1; iter <= sd.opts.IterLim; iter++ {
		for _, u := range order {
			if err := propagateInputs(u, torn); err != nil {
				return fail(err)
			}
			if err := fn(u); err != nil {
				return fail(fmt.Errorf("unit %s: %w", u.name, err))
			}
		}

		residual, gvals, err := tearResiduals(torn)
		if err != nil {
			return fail(err)
		}
		res.Record(residual)
		ev := log.Debug()
		if sd.opts.Tee {
			ev = log.Info()
		}
		ev.Int("iteration", iter).Float64("residual", residual).Msg("tear sweep")

		if residual <= sd.opts.Tolerance {
			// adopt the evaluated tear values and run one consistency sweep
			// so every port reflects the converged streams
			advanceTears(torn, gvals)
			for _, u := range order {
				if err := propagateInputs(u, torn); err != nil {
					return fail(err)
				}
				if err := fn(u); err != nil {
					return fail(fmt.Errorf("unit %s: %w", u.name, err))
				}
			}
			res.Termination = solve.Converged
			log.Info().Str("network", net.name).Int("iterations", iter).Msg("sequential decomposition converged")
			return res, nil
		}

		advanceTears(torn, sd.nextIterates(torn, gvals))

		if res.Stalling(sd.opts.StallAfter) {
			res.Termination = solve.Stalled
			return res, fmt.Errorf("no residual improvement in %d iterations", sd.opts.StallAfter)
		}
	}

	res.Termination = solve.MaxIterations
	return res, fmt.Errorf("tear streams did not converge in %d iterations (residual %g)", sd.opts.IterLim, res.Residual)
}

// propagateInputs sets the inbound port members of u from upstream outlet
// values. Tear arcs contribute their current iterate. Extensive members sum
// over inbound arcs with split fractions applied at the source; intensive
// members carry through, preferring a real upstream value over the tear
// iterate.
func propagateInputs(u *Unit, torn map[*Arc]*tearState) error {
	for _, p := range u.ports {
		if len(p.inbound) == 0 {
			continue
		}
		for _, m := range p.members {
			for _, key := range m.keys {
				var sum float64
				var intensiveVal float64
				haveIntensive, intensiveFromTear := false, false

				for _, a := range p.inbound {
					sm, ok := a.src.byName[m.name]
					if !ok {
						return fmt.Errorf("arc %s: source port %s.%s has no member %s", a.name, a.src.unit.name, a.src.name, m.name)
					}
					if sm.rule != m.rule {
						return fmt.Errorf("arc %s: member %s rule mismatch between ports", a.name, m.name)
					}

					if st, tear := torn[a]; tear {
						v := st.x[slotKey{m.name, key}]
						if m.rule == Extensive {
							sum += v
						} else if !haveIntensive {
							intensiveVal, haveIntensive, intensiveFromTear = v, true, true
						}
						continue
					}

					slot, ok := sm.slots[key]
					if !ok {
						return fmt.Errorf("arc %s: source member %s has no key %q", a.name, m.name, key)
					}
					v, err := slot.Value()
					if err != nil {
						return fmt.Errorf("arc %s: %w", a.name, err)
					}
					if m.rule == Extensive {
						frac, err := a.src.splitFraction(a)
						if err != nil {
							return err
						}
						sum += v * frac
						continue
					}
					if !haveIntensive || intensiveFromTear {
						intensiveVal, haveIntensive, intensiveFromTear = v, true, false
					}
				}

				val := sum
				if m.rule == Intensive {
					if !haveIntensive {
						continue
					}
					val = intensiveVal
				}
				if err := m.slots[key].SetValue(val); err != nil {
					return fmt.Errorf("port %s.%s: member %s[%s]: %w", u.name, p.name, m.name, key, err)
				}
			}
		}
	}
	return nil
}

// tearResiduals evaluates the source side of every tear arc and returns the
// max-norm distance to the current iterates.
func tearResiduals(torn map[*Arc]*tearState) (float64, map[*Arc]map[slotKey]float64, error) {
	var residual float64
	gvals := make(map[*Arc]map[slotKey]float64, len(torn))
	for a, st := range torn {
		g := make(map[slotKey]float64, len(st.x))
		for _, m := range a.dst.members {
			sm, ok := a.src.byName[m.name]
			if !ok {
				return 0, nil, fmt.Errorf("arc %s: source port %s.%s has no member %s", a.name, a.src.unit.name, a.src.name, m.name)
			}
			for _, key := range m.keys {
				slot, ok := sm.slots[key]
				if !ok {
					return 0, nil, fmt.Errorf("arc %s: source member %s has no key %q", a.name, m.name, key)
				}
				v, err := slot.Value()
				if err != nil {
					return 0, nil, fmt.Errorf("arc %s: %w", a.name, err)
				}
				if m.rule == Extensive {
					frac, err := a.src.splitFraction(a)
					if err != nil {
						return 0, nil, err
					}
					v *= frac
				}
				sk := slotKey{m.name, key}
				g[sk] = v
				if d := math.Abs(v - st.x[sk]); d > residual {
					residual = d
				}
			}
		}
		gvals[a] = g
	}
	return residual, gvals, nil
}

// nextIterates computes the tear update, direct substitution or Wegstein
// acceleration with a clamped factor, and records the history it needs.
func (sd *SequentialDecomposition) nextIterates(torn map[*Arc]*tearState, gvals map[*Arc]map[slotKey]float64) map[*Arc]map[slotKey]float64 {
	next := make(map[*Arc]map[slotKey]float64, len(torn))
	for a, st := range torn {
		g := gvals[a]
		nx := make(map[slotKey]float64, len(g))
		for sk, gv := range g {
			x := st.x[sk]
			xNew := gv // direct substitution
			if sd.opts.TearMethod == solve.TearWegstein && st.warm {
				if dx := x - st.prevX[sk]; math.Abs(dx) > 1e-15 {
					s := (gv - st.prevG[sk]) / dx
					q := s / (s - 1)
					if q < sd.opts.WegsteinMin {
						q = sd.opts.WegsteinMin
					}
					if q > sd.opts.WegsteinMax {
						q = sd.opts.WegsteinMax
					}
					xNew = q*x + (1-q)*gv
				}
			}
			st.prevX[sk] = x
			st.prevG[sk] = gv
			nx[sk] = xNew
		}
		st.warm = true
		next[a] = nx
	}
	return next
}

// advanceTears adopts the next iterates. Destination slots are not written
// here: propagation carries tear values into ports, summing correctly when
// a port receives several arcs.
func advanceTears(torn map[*Arc]*tearState, vals map[*Arc]map[slotKey]float64) {
	for a, st := range torn {
		for sk, nv := range vals[a] {
			st.x[sk] = nv
		}
	}
}
