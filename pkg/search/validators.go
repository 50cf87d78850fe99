package search

// BooksQuery represents the query parameters for book search.
type BooksQuery struct {
	Query     string `query:"q" json:"q" validate:"required,min=1,max=100"`
	LibraryID string `query:"library_id" json:"library_id,omitempty"`
	Limit     int    `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset    int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// BookSearchResult represents a book in search results.
type BookSearchResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Series    string `json:"series"`
	LibraryID string `json:"library_id"`
}

// BooksResponse represents the paginated response from book search.
type BooksResponse struct {
	Results []BookSearchResult `json:"results"`
	Total   int                `json:"total"`
}
