// Package engine runs the cqrsgen pipeline for one invocation.
//
// Pipeline:
//  1. Resolve and parse the lifecycle file and every model file
//  2. Extract capabilities and tagged types of each model
//  3. Classify handle methods into queries and commands
//  4. Synthesize the program (synth) and render it (emit)
//
// Every stage is deterministic: the same inputs produce byte-identical
// output. Models are processed in caller order and the first fatal error
// stops the pass. Near misses never stop the pass unless strict mode is on.
package engine
