// Package stress implements bench mode: the cases of a file are repeated one
// after another at a paced rate while an HDR histogram records their latency.
//
// Setup and teardown cases (bench.setup, bench.teardown) run once around the
// measured loop, and bench.weight biases which case each iteration picks.
// Response variables are captured after every iteration, so a case can bind
// values produced by the previous one.
package stress
