package books

// ListBooksQuery represents the query parameters to list books.
type ListBooksQuery struct {
	LibraryID *string `query:"library_id" json:"library_id,omitempty"`
	Format    *string `query:"format" json:"format,omitempty" validate:"omitempty,oneof=epub pdf cbz cbr images"`
	Limit     int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset    int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// ListBooksResponse represents the paginated response from listing books.
type ListBooksResponse struct {
	Books []*Book `json:"books"`
	Total int     `json:"total"`
}
