package cutworker

// Eligible implements the group-eligibility gate: before starting a
// worker for group under material, it is always eligible during warm-up
// (fewer than 10 finished threads for that material); afterwards it is
// eligible only if its own ranking share exceeds 1/5 of the total.
func Eligible(finishedThreads int, rankings map[string]int, group string) bool {
	if finishedThreads < 10 {
		return true
	}
	var total int
	for _, v := range rankings {
		total += v
	}
	if total == 0 {
		return true
	}
	return rankings[group]*5 > total
}
