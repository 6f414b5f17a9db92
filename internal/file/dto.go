package file

// CreateFileRequest registers the metadata of a completed upload
type CreateFileRequest struct {
	OriginalFilename string  `json:"original_filename" validate:"required"`
	FileSize         int64   `json:"file_size" validate:"required,min=1"`
	FileType         string  `json:"file_type"`
	Description      *string `json:"description,omitempty"`
	IsEncrypted      bool    `json:"is_encrypted"`
}

// UpdateVisibilityRequest toggles a file between private and public
type UpdateVisibilityRequest struct {
	Visibility string `json:"visibility" validate:"required,oneof=private public"`
}

// FileResponse represents a file in listings
type FileResponse struct {
	ID               int64   `json:"id"`
	RoomID           int64   `json:"room_id"`
	UserID           int64   `json:"user_id"`
	UploaderUsername string  `json:"uploader_username,omitempty"`
	Filename         string  `json:"filename"`
	OriginalFilename string  `json:"original_filename"`
	FileSize         int64   `json:"file_size"`
	FileType         string  `json:"file_type"`
	Category         string  `json:"category"`
	Description      *string `json:"description,omitempty"`
	Visibility       string  `json:"visibility"`
	IsEncrypted      bool    `json:"is_encrypted"`
	CreatedAt        string  `json:"created_at"`
}

// ToResponse converts a RoomFile model to a FileResponse DTO
func (f *RoomFile) ToResponse() *FileResponse {
	return &FileResponse{
		ID:               f.ID,
		RoomID:           f.RoomID,
		UserID:           f.UserID,
		UploaderUsername: f.UploaderUsername,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.FileSize,
		FileType:         f.FileType,
		Category:         string(f.Category),
		Description:      f.Description,
		Visibility:       string(f.Visibility),
		IsEncrypted:      f.IsEncrypted,
		CreatedAt:        f.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
