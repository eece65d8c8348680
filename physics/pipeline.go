package physics

import "sync"

// task splits data into contiguous chunks, one goroutine per chunk. With a
// single worker it runs inline.
func task[T any](workersCount int, data []T, fn func(data T)) {
	if workersCount <= 1 || len(data) < 2 {
		for _, item := range data {
			fn(item)
		}
		return
	}

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for start := 0; start < dataSize; start += chunkSize {
		wg.Add(1)
		go func(chunk []T) {
			defer wg.Done()
			for _, item := range chunk {
				fn(item)
			}
		}(data[start:min(start+chunkSize, dataSize)])
	}
	wg.Wait()
}
