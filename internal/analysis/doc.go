// Package analysis summarizes recorded trajectories.
//
// All functions work on exported samples and never touch a live engine:
//
//   - [EnergyStats]: energy range, mean and drift along a trajectory
//   - [PowerSpectrum] and [DominantFrequency]: FFT of the position signal
//   - [PoincareSection]: stroboscopic samples, one per forcing period
//
// # Chaos Detection
//
// A periodic response collapses to a few points on the Poincaré section; a
// chaotic one fills a strange attractor:
//
//	pts := analysis.PoincareSection(eng.Export(), params.Model().Period())
package analysis
