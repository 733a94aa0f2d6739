// Package planner computes per-account posting slots over a rolling horizon
// and assigns pending items to them, waitlisting whatever exceeds capacity.
// Slot occupancy is always recomputed from item metadata; the schedule index
// file is a derived artifact for inspection.
package planner
