package reconcile

import "sort"

// AssignmentDiff is the outcome of comparing a person's current post
// assignments against the authoritative target set.
type AssignmentDiff struct {
	// Desired is the full assignment list to write back, ordered.
	Desired []string
	// ToAdd are target posts the person does not yet hold.
	ToAdd []string
	// ToRemove are managed posts the person holds but should not.
	ToRemove []string
}

// Changed reports whether the diff requires a write.
func (d AssignmentDiff) Changed() bool {
	return len(d.ToAdd) > 0 || len(d.ToRemove) > 0
}

// DiffAssignments computes the target assignment set for one person.
// current is everything the person holds today, should is the
// authoritative set, and managed reports whether a post is under this
// run's control. Unmanaged posts are never removed; they are carried
// into Desired untouched. Results come back sorted for deterministic
// writes.
func DiffAssignments(current, should []string, managed func(string) bool) AssignmentDiff {
	currentSet := toSet(current)
	shouldSet := toSet(should)

	var diff AssignmentDiff
	for post := range shouldSet {
		if !currentSet[post] {
			diff.ToAdd = append(diff.ToAdd, post)
		}
	}
	for post := range currentSet {
		if managed(post) && !shouldSet[post] {
			diff.ToRemove = append(diff.ToRemove, post)
			continue
		}
		diff.Desired = append(diff.Desired, post)
	}
	for post := range shouldSet {
		if !currentSet[post] {
			diff.Desired = append(diff.Desired, post)
		}
	}

	sort.Strings(diff.Desired)
	sort.Strings(diff.ToAdd)
	sort.Strings(diff.ToRemove)
	if diff.Desired == nil {
		diff.Desired = []string{}
	}
	return diff
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
