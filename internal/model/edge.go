package model

// Edge is a precedence constraint between two live instances, produced
// only after both endpoints are known to exist (§4.2). From/To are
// dense node ids so the graph never hashes Key at traversal time.
type Edge struct {
	From     NodeID
	To       NodeID
	FromKey  Key
	ToKey    Key
	Relation Relation
	Origin   Origin
}
