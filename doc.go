// Package mpipe implements a multi-stage parallel processing pipeline.
//
// A Pipeline is a rooted DAG of Stages connected by unidirectional tubes.
// Each Stage runs a fixed-size pool of workers that apply a user transform
// to tasks flowing through; workers are either ordered (output order
// matches input order, at the cost of a small ring handshake around
// publish) or unordered (publish as soon as the transform returns).
// End-of-stream is signalled by a single nil payload ("the stop sentinel")
// travelling through the same tubes as real tasks and aggregated per
// stage so that exactly one stop reaches each downstream edge.
package mpipe
