// Package pipeline derives the dashboard views from the current dataset:
// the filtered subset, the priority/category summary, the top-N statistics
// tables and the paginated, optionally priority-grouped rows.
//
// Every derivation is a pure function of its inputs. Session holds the one
// active dataset and the viewer state (criteria, group mode, current page)
// and recomputes views from the canonical dataset on demand.
package pipeline
