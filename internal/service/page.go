package service

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func totalPages(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize

	if pages < 1 {
		// an empty listing still renders as a single page
		pages = 1
	}

	return pages
}
