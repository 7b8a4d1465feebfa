// Package gomo provides Go Optimization Modeling Objects: a high level API to
// declare algebraic optimization models (sets, parameters, variables,
// constraints, objectives) independently of any solver.
//
// A model starts abstract: components are declared symbolically, and parameter
// values are not bound until the model is instantiated against a data store.
// See the model, instance and data packages, and examples/ for runnable
// demonstrations.
package gomo

import (
	"github.com/blang/semver/v4"
)

// Version of the gomo library.
var Version = semver.MustParse("0.3.0")
