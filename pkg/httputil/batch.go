package httputil

// Batch splits items into consecutive chunks of at most size
func Batch(items []string, size int) [][]string {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
