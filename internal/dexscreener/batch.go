package dexscreener

// BatchAddresses splits addresses into comma-joined path batches. A batch is
// closed when adding the next address would exceed maxPerBatch addresses or
// push the serialized URL past maxURLLength. Every address appears in exactly
// one batch, in input order.
func BatchAddresses(baseURL string, addresses []string, maxPerBatch, maxURLLength int) [][]string {
	var batches [][]string
	var current []string

	// Base URL, "/" separator, then len-1 commas between n addresses.
	urlLen := len(baseURL) + 1

	for _, address := range addresses {
		addLen := len(address)
		if len(current) > 0 {
			addLen++ // comma separator
		}

		if len(current) >= maxPerBatch || (len(current) > 0 && urlLen+addLen > maxURLLength) {
			batches = append(batches, current)
			current = nil
			urlLen = len(baseURL) + 1
			addLen = len(address)
		}

		current = append(current, address)
		urlLen += addLen
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
