package extract

import (
	"context"
	"fmt"

	"studypile/internal/config"
	"studypile/internal/models"
)

// Extractor turns the raw bytes of one submission into plain text. The
// output only ever lives in the memory of the pipeline task that asked
// for it; nothing here persists anything.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Registry holds one extractor per binary submission kind.
type Registry struct {
	byKind map[models.FileKind]Extractor
}

// NewRegistry wires the extraction capabilities: local parsing for pdf and
// office containers, the multimodal model for image, audio and video.
func NewRegistry(ctx context.Context, cfg *config.Config) (*Registry, error) {
	media, err := NewMediaExtractor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Registry{
		byKind: map[models.FileKind]Extractor{
			models.KindPDF:   PDFExtractor{},
			models.KindDocx:  DocxExtractor{},
			models.KindPptx:  PptxExtractor{},
			models.KindImage: media,
			models.KindAudio: media,
			models.KindVideo: media,
		},
	}, nil
}

// ForKind returns the extractor registered for a kind.
func (r *Registry) ForKind(kind models.FileKind) (Extractor, bool) {
	if r == nil {
		return nil, false
	}
	ex, ok := r.byKind[kind]
	return ex, ok
}

// Extract dispatches to the extractor for the given kind.
func (r *Registry) Extract(ctx context.Context, kind models.FileKind, data []byte) (string, error) {
	ex, ok := r.ForKind(kind)
	if !ok {
		return "", fmt.Errorf("no extractor for kind %s", kind)
	}
	return ex.Extract(ctx, data)
}
