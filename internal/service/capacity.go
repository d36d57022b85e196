package service

// Allocation splits a bulk enrollment request into immediately enrollable
// trainees and waiting-list candidates, preserving request order.
type Allocation struct {
	Enrolled   []string
	Waitlisted []string
}

// Allocate assigns the first max(0, maxSeats-currentEnrollment) requested
// trainees to immediate enrollment and the remainder to the waiting list.
func Allocate(maxSeats, currentEnrollment int, requested []string) Allocation {
	available := maxSeats - currentEnrollment
	if available < 0 {
		available = 0
	}
	if available > len(requested) {
		available = len(requested)
	}
	return Allocation{
		Enrolled:   requested[:available],
		Waitlisted: requested[available:],
	}
}
