package match

import "sync"

// jobLocks serializes shortlist writes per job id. Locks are created lazily
// and kept for the process lifetime; the job universe is small enough that
// reclaiming idle entries is not worth the bookkeeping.
type jobLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newJobLocks() *jobLocks {
	return &jobLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for jobID and returns its unlock func.
func (j *jobLocks) lock(jobID string) func() {
	j.mu.Lock()
	m, ok := j.locks[jobID]
	if !ok {
		m = &sync.Mutex{}
		j.locks[jobID] = m
	}
	j.mu.Unlock()

	m.Lock()
	return m.Unlock
}
