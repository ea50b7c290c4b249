// Package shape maps requested detail levels to concrete payload
// projections.
//
// A projection is a pure function of the full upstream payload, so narrower
// shapes can be synthesized locally from cached or in-flight full results
// without a second upstream call.
package shape
