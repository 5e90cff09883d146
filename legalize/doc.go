// Package legalize implements the Boundary Clipper (spec §4.5): the
// minimal post-solve step that pins every movable node's solved
// position back inside the core region, without attempting full
// legalization (row alignment, overlap removal) — those are explicitly
// out of scope (spec §1, Non-goals).
package legalize
