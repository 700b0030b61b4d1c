package synth

import (
	"strings"

	"github.com/roach88/cqrsgen/internal/ir"
)

// Names of the shared declarations every dispatch refers to.
const (
	CqrsName            = "Cqrs"
	LifecycleName       = "Lifecycle"
	AppStateName        = "AppState"
	EffectName          = "Effect"
	ProcessingErrorName = "ProcessingError"
	NotPersistedName    = "NotPersisted"
)

// localNames are identifiers declared inside generated function bodies.
// Import aliases must not shadow them.
var localNames = []string{
	"lifecycle", "appState", "handle", "req", "result", "err",
	"stateChanged", "effects", "effect", "mapped",
}

// Dispatch builds the process function of enum. Each arm calls the handle
// operation with the request fields in argument order.
func Dispatch(model *ir.Model, enum *ir.Enumeration, q *Qualifier) *ir.Dispatch {
	if enum == nil {
		return nil
	}

	ops := model.Queries
	if enum.Category == ir.Command {
		ops = model.Commands
	}
	variadic := make(map[string]bool, len(ops))
	for _, op := range ops {
		if n := len(op.Args); n > 0 && op.Args[n-1].Variadic {
			variadic[op.Name] = true
		}
	}

	d := &ir.Dispatch{
		Func:         "process" + enum.Name,
		Enum:         enum.Name,
		Category:     enum.Category,
		Accessor:     model.Handle,
		ResultType:   "[]" + q.Name(model.Effect),
		ErrorType:    q.Name(model.Error),
		ErrorVariant: model.Domain + "Error",
		NotPersisted: NotPersistedName,
		Mapper:       mapperName(model.Domain),
	}
	for _, v := range enum.Variants {
		args := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			args[i] = "req." + f.Name
		}
		if variadic[v.Operation] {
			args[len(args)-1] += "..."
		}
		d.Arms = append(d.Arms, ir.DispatchArm{
			Type: v.Type,
			Call: "handle." + v.Operation + "(" + strings.Join(args, ", ") + ")",
		})
	}
	return d
}

// EffectMapping builds the conversion from a model's effects to aggregated
// effects and returns the aggregated variants it maps to. A variant whose
// marker methods have value receivers is matched both as V and as *V,
// since both implement the Effect interface.
func EffectMapping(model *ir.Model, q *Qualifier) (ir.EffectMapping, []ir.AggregatedEffect, error) {
	m := ir.EffectMapping{
		Func:   mapperName(model.Domain),
		Source: q.Name(model.Effect),
		Target: EffectName,
	}

	var aggregated []ir.AggregatedEffect
	for _, v := range model.Variants {
		source := q.Name(v.Name)
		target := model.Domain + v.Name

		effect := ir.AggregatedEffect{Name: target, Model: model.Domain, Source: source}
		for _, f := range v.Fields {
			typ, err := q.Type(f.Type)
			if err != nil {
				return ir.EffectMapping{}, nil, err
			}
			effect.Fields = append(effect.Fields, ir.RenderedField{Name: f.Name, Type: typ})
		}
		aggregated = append(aggregated, effect)

		if !v.Pointer {
			m.Arms = append(m.Arms, effectArm(v, source, target, false))
		}
		m.Arms = append(m.Arms, effectArm(v, "*"+source, target, true))
	}
	return m, aggregated, nil
}

// effectArm matches v as match. pointer tells whether the matched value is
// a *V.
func effectArm(v ir.EffectVariant, match, target string, pointer bool) ir.EffectArm {
	arm := ir.EffectArm{Match: match, Target: target}
	for _, f := range v.Fields {
		expr := "effect." + f.Name
		if f.Self {
			expr = "effect"
			if pointer {
				expr = "*effect"
			}
		}
		arm.Copies = append(arm.Copies, ir.FieldCopy{Name: f.Name, Expr: expr})
	}
	return arm
}

func mapperName(domain string) string {
	return "map" + domain + "Effects"
}
