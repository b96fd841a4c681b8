/*
Package nodeid defines the canonical string form of graph node
identifiers and centralizes all formatting and parsing of that form.

An identifier names a grid entity as `<kind>.<type>.<name>`, e.g.
`step.halite_match.selfplay` or `resource.results_db.main`. Instances
of a counted step carry a bracketed suffix: `step.halite_match.round[2]`.
*/
package nodeid
