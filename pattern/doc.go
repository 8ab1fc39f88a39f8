// Package pattern implements PatternSub (§4.4): a syntactic pattern
// matcher and substituter built from a small tree grammar of Op
// applications, named variables, and literal constants, plus an
// environment-based unification match and reify step.
//
// A Pattern is one of:
//
//	Var(name)        — matches any Value, binding it to name in the match
//	                    environment (a second occurrence of the same name
//	                    must match the identical Value pointer)
//	ConstLit(v)       — matches only a Constant Value equal (by Type and
//	                    Data) to v
//	Apply(op, ...)    — matches a Value produced by a Node applying an Op
//	                    equal to op, recursing into each input pattern
//
// Pattern.Where attaches an optional constraint checked at bind time.
// PatternSub.GetNodes lets a caller retarget which Node a match is
// attempted against (e.g. trying an equivalent alias of the node passed
// in), mirroring Aesara's get_nodes hook.
package pattern
