package appointment

import (
	"sort"
	"time"
)

// NormalizeSlot brings an instant to the precision Postgres stores, in UTC,
// so slots read back from storage compare equal to slots sent by clients.
func NormalizeSlot(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func slotKey(t time.Time) int64 {
	return NormalizeSlot(t).UnixMicro()
}

// DedupeSlots normalizes slots, drops duplicates and returns them sorted ascending.
func DedupeSlots(slots []time.Time) []time.Time {
	seen := make(map[int64]struct{}, len(slots))
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		k := slotKey(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, NormalizeSlot(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func ContainsSlot(catalog []time.Time, at time.Time) bool {
	k := slotKey(at)
	for _, s := range catalog {
		if slotKey(s) == k {
			return true
		}
	}
	return false
}

// FreeSlots derives the bookable slots of a doctor: the catalog minus every slot
// held by an active appointment. Catalog order is preserved.
func FreeSlots(catalog []time.Time, appointments []Appointment) []time.Time {
	occupied := make(map[int64]struct{}, len(appointments))
	for _, a := range appointments {
		if a.Status.IsActive() {
			occupied[slotKey(a.ScheduledAt)] = struct{}{}
		}
	}

	free := make([]time.Time, 0, len(catalog))
	for _, s := range catalog {
		if _, taken := occupied[slotKey(s)]; taken {
			continue
		}
		free = append(free, NormalizeSlot(s))
	}
	return free
}
