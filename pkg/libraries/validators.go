package libraries

// CreateLibraryPayload represents the body to create a library.
type CreateLibraryPayload struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// ListLibrariesQuery represents the query parameters to list libraries.
type ListLibrariesQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// ListLibrariesResponse represents the response from listing libraries.
type ListLibrariesResponse struct {
	Libraries []*Library `json:"libraries"`
}
