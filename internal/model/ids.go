// Package model holds the immutable domain entities of the scheduling
// engine: templates, products, task instances, precedence edges, teams,
// shifts and the assignments the scheduler produces.
package model

import "fmt"

// QIOffset is the reserved offset added to a task number to name the
// quality-inspection instance attached to it. The convention must be
// preserved end to end because precedence edges reference it directly.
const QIOffset = 10000

// NodeStride upper-bounds the task-number space (including the QI
// offset window) so that a product index and a task number can be
// packed into a single dense integer id without collision.
const NodeStride = 1_000_000

// Key is the public identity of a task instance: a product and a task
// number (which may already carry +QIOffset for a quality inspection).
type Key struct {
	Product string `json:"product"`
	TaskNum int    `json:"task_num"`
}

// String renders the external boundary identifier format "<product>_<task>".
func (k Key) String() string {
	return fmt.Sprintf("%s_%d", k.Product, k.TaskNum)
}

// IsQualityInspection reports whether this key's task number falls in
// the QI offset window.
func (k Key) IsQualityInspection() bool {
	return k.TaskNum >= QIOffset
}

// PrimaryTaskNum returns the task number this key inspects, valid only
// when IsQualityInspection is true.
func (k Key) PrimaryTaskNum() int {
	return k.TaskNum - QIOffset
}

// NodeID is a dense per-run integer id used internally by the graph and
// scheduler so hot paths never hash strings. It is derived from a
// product's registration index, not from the string itself, so two runs
// over the same input produce the same ids deterministically as long as
// products are registered in the same order (the catalog loader
// preserves input order for this reason).
type NodeID int64

// PackNodeID combines a product's registration index and a task number
// into a single dense id.
func PackNodeID(productIndex int, taskNum int) NodeID {
	return NodeID(int64(productIndex)*NodeStride + int64(taskNum))
}
