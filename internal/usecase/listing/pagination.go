package listing

// TotalPages is ceil(total/pageSize). A non-positive page size yields 0.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// PageNumbers lists every zero-based page index in [0,totalPages).
func PageNumbers(totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	pages := make([]int, totalPages)
	for i := range pages {
		pages[i] = i
	}
	return pages
}
