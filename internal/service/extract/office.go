package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Both docx and pptx are OPC containers: zip archives whose text lives in
// XML part files as <w:t>/<a:t> runs grouped into <w:p>/<a:p> paragraphs.
// The namespace prefixes differ but the local element names match, so one
// token walk serves both kinds.

// DocxExtractor reads the main document part of a .docx container.
type DocxExtractor struct{}

func (DocxExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}
	for _, entry := range archive.File {
		if entry.Name == "word/document.xml" {
			return readEntryText(entry)
		}
	}
	return "", errors.New("docx container has no word/document.xml")
}

// PptxExtractor reads every slide part of a .pptx container in slide order.
type PptxExtractor struct{}

func (PptxExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx container: %w", err)
	}
	var slides []*zip.File
	for _, entry := range archive.File {
		if strings.HasPrefix(entry.Name, "ppt/slides/slide") && strings.HasSuffix(entry.Name, ".xml") {
			slides = append(slides, entry)
		}
	}
	if len(slides) == 0 {
		return "", errors.New("pptx container has no slides")
	}
	// Shorter names sort first so slide2 precedes slide10.
	sort.Slice(slides, func(i, j int) bool {
		if len(slides[i].Name) != len(slides[j].Name) {
			return len(slides[i].Name) < len(slides[j].Name)
		}
		return slides[i].Name < slides[j].Name
	})

	var builder strings.Builder
	for _, slide := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := readEntryText(slide)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func readEntryText(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", entry.Name, err)
	}
	defer rc.Close()
	text, err := xmlRunText(rc)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", entry.Name, err)
	}
	return text, nil
}

// xmlRunText collects the character data of every <t> run, inserting a
// newline at each paragraph end.
func xmlRunText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var (
		builder strings.Builder
		inRun   bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inRun = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inRun {
				builder.Write(el)
			}
		}
	}
	return builder.String(), nil
}
