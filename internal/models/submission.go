package models

import "time"

// FileKind classifies a submission by how its content is obtained.
type FileKind string

const (
	KindPDF   FileKind = "pdf"
	KindDocx  FileKind = "docx"
	KindPptx  FileKind = "pptx"
	KindImage FileKind = "image"
	KindAudio FileKind = "audio"
	KindVideo FileKind = "video"
	KindURL   FileKind = "url"
)

// supportedTypes is the intake whitelist for binary uploads. Text and URL
// submissions share the "url" kind and never pass through it.
var supportedTypes = map[string]FileKind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   KindDocx,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": KindPptx,
	"image/png":  KindImage,
	"image/jpeg": KindImage,
	"image/webp": KindImage,
	"audio/mpeg": KindAudio,
	"audio/wav":  KindAudio,
	"audio/webm": KindAudio,
	"video/mp4":  KindVideo,
	"video/webm": KindVideo,
}

// KindForContentType maps a declared MIME type to its file kind. The second
// return is false for anything outside the whitelist.
func KindForContentType(contentType string) (FileKind, bool) {
	kind, ok := supportedTypes[contentType]
	return kind, ok
}

// Submission is the durable record of one piece of study material. It is
// immutable once written; reprocessing appends summaries, never rewrites this.
type Submission struct {
	FileID      string    `json:"file_id"`
	OwnerUID    string    `json:"owner_uid"`
	FileName    string    `json:"file_name"`
	FileType    FileKind  `json:"file_type"`
	StoragePath string    `json:"storage_path"`
	UploadTime  time.Time `json:"upload_time"`
}
