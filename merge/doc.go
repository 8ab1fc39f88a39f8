// Package merge implements incremental common-subexpression elimination as
// a core.Feature (§4.3): MergeFeature watches every Node imported into a
// Graph and schedules a replacement whenever it finds two Nodes applying
// an Equal Op to pointer-identical inputs; MergeOptimizer is the driver
// that works through the schedule, installing each candidate through
// core.Graph's validated replace family and blacklisting any pair
// validation rejects so it is never retried.
//
// Because signatures key on input Value identity rather than deep
// structural equality, two Nodes only become merge candidates once their
// inputs are shared. Constant inputs are canonicalized as each Node is
// imported; duplicates further up a subgraph are found when MergeOptimizer
// rewires their consumers onto the kept Node, which re-files each consumer
// through OnChangeInput.
package merge
