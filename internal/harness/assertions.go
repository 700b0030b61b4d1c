package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
	"github.com/roach88/cqrsgen/internal/source"
)

// AssertionError is an unmet expectation.
type AssertionError struct {
	Type     string // expectation key, e.g. "error_code"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks result against expect and returns one
// message per unmet expectation. Golden comparison is left to
// RunWithGolden since it needs a *testing.T.
func EvaluateExpectations(result *Result, expect Expectation) []string {
	var errs []error
	if expect.ErrorCode != "" {
		errs = assertError(result, expect)
	} else if result.Err != nil {
		errs = append(errs, &AssertionError{
			Type:     "generate",
			Expected: "successful generation",
			Actual:   result.Err.Error(),
		})
	} else {
		errs = assertGenerated(result, expect)
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func assertError(result *Result, expect Expectation) []error {
	if result.Err == nil {
		return []error{&AssertionError{
			Type:     "error_code",
			Expected: "generation to fail with " + expect.ErrorCode,
			Actual:   "generation succeeded",
		}}
	}

	var errs []error
	if code := errorCode(result.Err); code != expect.ErrorCode {
		errs = append(errs, &AssertionError{
			Type:     "error_code",
			Expected: expect.ErrorCode,
			Actual:   fmt.Sprintf("%s (%v)", code, result.Err),
		})
	}
	for _, want := range expect.ErrorContains {
		if !strings.Contains(result.Err.Error(), want) {
			errs = append(errs, &AssertionError{
				Type:     "error_contains",
				Expected: fmt.Sprintf("error containing %q", want),
				Actual:   result.Err.Error(),
			})
		}
	}
	return errs
}

func assertGenerated(result *Result, expect Expectation) []error {
	var errs []error
	code := string(result.Code)
	for _, want := range expect.Contains {
		if !strings.Contains(code, want) {
			errs = append(errs, &AssertionError{Type: "contains", Expected: fmt.Sprintf("%q in generated code", want), Actual: "not found"})
		}
	}
	for _, unwanted := range expect.NotContains {
		if strings.Contains(code, unwanted) {
			errs = append(errs, &AssertionError{Type: "not_contains", Expected: fmt.Sprintf("no %q in generated code", unwanted), Actual: "found"})
		}
	}

	p := result.Generated.Program
	if len(expect.Queries) > 0 {
		errs = append(errs, assertVariants("queries", expect.Queries, p, func(m ir.ModelAPI) *ir.Enumeration { return m.Query })...)
	}
	if len(expect.Commands) > 0 {
		errs = append(errs, assertVariants("commands", expect.Commands, p, func(m ir.ModelAPI) *ir.Enumeration { return m.Command })...)
	}

	if expect.Effects != nil {
		var effects []string
		for _, v := range p.Effects.Variants {
			effects = append(effects, v.Name)
		}
		if err := assertList("effects", expect.Effects, effects); err != nil {
			errs = append(errs, err)
		}
	}

	if expect.NearMisses != nil {
		var misses []string
		for _, nm := range result.Generated.NearMisses {
			misses = append(misses, nm.Operation)
		}
		if err := assertList("near_misses", expect.NearMisses, misses); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// assertVariants compares the variant names of one enumeration per model.
// Models missing from want are not checked.
func assertVariants(kind string, want map[string][]string, p *ir.Program, enum func(ir.ModelAPI) *ir.Enumeration) []error {
	got := make(map[string][]string, len(p.Models))
	for _, m := range p.Models {
		var names []string
		if e := enum(m); e != nil {
			for _, v := range e.Variants {
				names = append(names, v.Name)
			}
		}
		got[m.Domain] = names
	}

	domains := make([]string, 0, len(want))
	for domain := range want {
		domains = append(domains, domain)
	}
	slices.Sort(domains)

	var errs []error
	for _, domain := range domains {
		names, ok := got[domain]
		if !ok {
			errs = append(errs, &AssertionError{Type: kind, Expected: "model " + domain, Actual: "no such model"})
			continue
		}
		if err := assertList(kind+"."+domain, want[domain], names); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func assertList(kind string, want, got []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{Type: kind, Expected: fmt.Sprintf("%v", want), Actual: fmt.Sprintf("%v", got)}
}

// errorCode returns the diagnostic code of err, or "" if it has none.
func errorCode(err error) string {
	var notFound *source.ModuleNotFoundError
	if errors.As(err, &notFound) {
		return source.ErrCodeNotFound
	}
	return compiler.CodeOf(err)
}
