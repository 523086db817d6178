// Package metrics holds sim.Metric observers evaluated along a simulated
// response: tracking-error integrals for closed loops, output energy, peak
// output and a bounded-output stability fraction.
package metrics
