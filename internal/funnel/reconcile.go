package funnel

import "strings"

// ReconcilePlan is the diff between a persisted child-row set and the
// desired one: rows with temporary or empty ids are inserted, rows with
// persisted ids are updated, persisted rows absent from the desired set are
// deleted. The same routine drives both the funnel-schema save and the
// replace-children semantics of proposals on entry re-edit.
type ReconcilePlan[T any] struct {
	Insert []T
	Update []T
	Delete []string
}

// Reconcile diffs desired rows against the set of currently persisted ids.
// keep lists persisted ids that must never be deleted (the protected funnel
// stage); id extracts a row's id.
func Reconcile[T any](existingIDs []string, desired []T, keep []string, id func(T) string) ReconcilePlan[T] {
	var plan ReconcilePlan[T]
	current := make(map[string]bool, len(desired))
	for _, row := range desired {
		rowID := id(row)
		if rowID == "" || strings.HasPrefix(rowID, TempIDPrefix) {
			plan.Insert = append(plan.Insert, row)
			continue
		}
		current[rowID] = true
		plan.Update = append(plan.Update, row)
	}
	protected := make(map[string]bool, len(keep))
	for _, k := range keep {
		protected[k] = true
	}
	for _, existing := range existingIDs {
		if !current[existing] && !protected[existing] {
			plan.Delete = append(plan.Delete, existing)
		}
	}
	return plan
}
