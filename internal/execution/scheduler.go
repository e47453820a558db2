package execution

// Scheduler distributes sources across workers
type Scheduler interface {
	Schedule(sources []string, workerCount int) [][]string
}

// RoundRobinScheduler distributes sources evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes sources evenly across workers using round-robin.
// Never returns more buckets than there are sources: the pool starts one
// goroutine per bucket, so an empty bucket would be an idle worker.
func (s *RoundRobinScheduler) Schedule(sources []string, workerCount int) [][]string {
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(sources) {
		workerCount = len(sources)
	}

	distribution := make([][]string, workerCount)
	for i := range distribution {
		distribution[i] = make([]string, 0, len(sources)/workerCount+1)
	}

	for i, source := range sources {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], source)
	}

	return distribution
}
