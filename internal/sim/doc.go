// Package sim runs single-input single-output systems over a fixed time grid.
//
// A [Simulator] pairs a [System] with an [Integrator], samples an [Input] on a
// [Grid] and records the output at every sample, starting from the zero state:
//
//	ss, _ := lti.Realize(g)
//	s := sim.New(sim.NewLinear(ss), integrators.NewFOH())
//	result, err := s.Run(ctx, sim.NewGrid(0, 5, 10), sim.Step{})
//
// Simulator instances are not safe for concurrent use; integrators keep
// scratch buffers. Build one per goroutine.
package sim
