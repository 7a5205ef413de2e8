package version

import "sync"

var installLocks sync.Map

// tryLock claims key for one install at a time within this process.
func tryLock(key string) (func(), bool) {
	value, _ := installLocks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}
