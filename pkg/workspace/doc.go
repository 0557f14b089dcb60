/*
Package workspace manages named flows stored in a ports.FlowStore.

Edits to the same flow are serialized with per-flow in-process locks
(reference counted, released when idle) and, optionally, a distributed
lock so several replicas can share one store. Every change is diffed
against the stored snapshot and reported to change listeners.
*/
package workspace
