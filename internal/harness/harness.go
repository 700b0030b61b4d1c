package harness

import (
	"fmt"

	"github.com/roach88/cqrsgen/internal/engine"
	"github.com/roach88/cqrsgen/internal/testutil"
)

// Run generates the scenario's project and evaluates its expectations.
//
// Generation errors are part of the result, not of the returned error:
// a scenario may expect one. The returned error reports scenarios that
// cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	effect, failure, err := engine.LookupsFor(scenario.Discovery)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	logger, logs := testutil.NewLogger()
	eng := engine.New(testutil.NewMapResolver(scenario.ModulePath(), scenario.Files),
		engine.WithStrict(scenario.Strict),
		engine.WithLookups(effect, failure),
		engine.WithLogger(logger),
	)

	result := NewResult()
	generated, err := eng.Generate(engine.Invocation{
		Lifecycle: scenario.Lifecycle,
		Models:    scenario.Models,
	})
	if err != nil {
		result.Err = err
	} else {
		result.Generated = generated
		result.Code = generated.Code
	}
	result.Log = logs.String()

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}
	if scenario.Expect.Compiles && result.Code != nil {
		if err := TypeCheck(scenario, result.Code); err != nil {
			result.AddError((&AssertionError{
				Type:     "compiles",
				Expected: "the project to type-check",
				Actual:   err.Error(),
			}).Error())
		}
	}
	return result, nil
}
