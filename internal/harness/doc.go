// Package harness runs conformance scenarios against the generator.
//
// A scenario is a YAML file describing an in-memory project and what
// generating it must produce. Files are resolved through an in-memory
// resolver, so scenarios never touch the disk.
//
// # Scenario Format
//
//	name: todo_list
//	description: "What this scenario validates"
//	module: example.com/app          # optional, default example.com/app
//	lifecycle: app/lifecycle.go
//	models:
//	  - internal/todo/model.go
//	strict: false                     # optional
//	discovery: name                   # optional, name | directive
//	files:
//	  app/lifecycle.go: |
//	    package app
//	    ...
//	expect:
//	  golden: true
//	  compiles: true
//	  queries:
//	    TodoModel: [GetAllItems]
//	  commands:
//	    TodoModel: [AddItem, CleanList, RemoveItem]
//	  effects: [TodoModelRenderItems]
//	  near_misses: [Export]
//	  contains: ["func processTodoModelCommand("]
//
// A failing scenario names the expected error instead:
//
//	expect:
//	  error_code: E203
//	  error_contains: ["TodoModelLock", "TodoModelLock2"]
//
// # Expectations
//
//   - error_code, error_contains: generation fails with this code and message
//   - golden: the generated file matches testdata/golden/<name>.golden
//   - compiles: the project, with the generated file added, type-checks;
//     model packages that do not declare CqrsModel or CqrsModelLock get
//     empty interfaces for them
//   - contains, not_contains: substrings of the generated file
//   - queries, commands: variant names per domain model, in order
//   - effects: aggregated Effect variants, in order
//   - near_misses: operations skipped as near misses, in order
//
// # Usage
//
//	scenarios, err := harness.LoadScenarios("testdata/scenarios")
//	...
//	for _, s := range scenarios {
//	    result, err := harness.Run(s)
//	    if !result.Pass {
//	        for _, msg := range result.Errors {
//	            log.Println(msg)
//	        }
//	    }
//	}
//
// Golden files are refreshed with
//
//	go test ./internal/harness -update
package harness
