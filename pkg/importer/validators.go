package importer

import "mime/multipart"

// UploadBookPayload represents the multipart body to upload a book. The file
// goes in a "file" part.
type UploadBookPayload struct {
	FormFiles map[string]*multipart.FileHeader `json:"-" schema:"-"`
}
