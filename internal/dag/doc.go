// Package dag builds the execution graph. It takes the format-agnostic
// config model, creates one node per step and resource, links dependencies
// discovered both explicitly (depends_on) and implicitly (expression
// variables), and validates the result is acyclic. Execution of the graph
// lives in the executor package.
package dag
