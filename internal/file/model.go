package file

import (
	"path/filepath"
	"strings"
	"time"
)

// Visibility controls who inside a room can see a file. It is orthogonal to
// encryption and storage: toggling it never moves or re-encrypts bytes.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility normalizes a visibility string
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(s))) {
	case VisibilityPrivate:
		return VisibilityPrivate, true
	case VisibilityPublic:
		return VisibilityPublic, true
	default:
		return "", false
	}
}

// Category buckets files by type for filtering and display
type Category string

const (
	CategoryDocument Category = "document"
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryArchive  Category = "archive"
	CategoryCode     Category = "code"
	CategoryOther    Category = "other"
)

var categoryByExtension = map[string]Category{
	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"txt": CategoryDocument, "rtf": CategoryDocument, "odt": CategoryDocument,
	"xls": CategoryDocument, "xlsx": CategoryDocument, "ppt": CategoryDocument, "pptx": CategoryDocument,
	"jpg": CategoryImage, "jpeg": CategoryImage, "png": CategoryImage, "gif": CategoryImage,
	"bmp": CategoryImage, "svg": CategoryImage, "webp": CategoryImage, "ico": CategoryImage,
	"mp4": CategoryVideo, "avi": CategoryVideo, "mov": CategoryVideo, "wmv": CategoryVideo,
	"flv": CategoryVideo, "mkv": CategoryVideo, "webm": CategoryVideo,
	"mp3": CategoryAudio, "wav": CategoryAudio, "flac": CategoryAudio,
	"aac": CategoryAudio, "ogg": CategoryAudio, "wma": CategoryAudio,
	"zip": CategoryArchive, "rar": CategoryArchive, "7z": CategoryArchive,
	"tar": CategoryArchive, "gz": CategoryArchive, "bz2": CategoryArchive,
	"js": CategoryCode, "ts": CategoryCode, "py": CategoryCode, "java": CategoryCode,
	"cpp": CategoryCode, "c": CategoryCode, "html": CategoryCode, "css": CategoryCode,
	"php": CategoryCode, "rb": CategoryCode, "go": CategoryCode, "rs": CategoryCode,
}

// CategoryFromFilename derives the category from a filename's extension
func CategoryFromFilename(filename string) Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return CategoryOther
	}
	if cat, ok := categoryByExtension[ext]; ok {
		return cat
	}
	return CategoryOther
}

// RoomFile represents an uploaded file's metadata. The bytes themselves live
// in external storage addressed by StoragePath.
type RoomFile struct {
	ID               int64      `json:"id"`
	RoomID           int64      `json:"room_id"`
	UserID           int64      `json:"user_id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FileSize         int64      `json:"file_size"`
	FileType         string     `json:"file_type"`
	Category         Category   `json:"category"`
	Description      *string    `json:"description,omitempty"`
	StoragePath      string     `json:"-"`
	Visibility       Visibility `json:"visibility"`
	IsEncrypted      bool       `json:"is_encrypted"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Populated from JOIN
	UploaderUsername string `json:"uploader_username,omitempty"`
}
