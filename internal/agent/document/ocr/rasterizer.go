package ocr

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer opens documents for page rendering.
type Rasterizer interface {
	Open(path string) (Document, error)
}

// Document is an open, renderable document. Pages are zero-based.
type Document interface {
	NumPage() int
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// FitzRasterizer renders pages with MuPDF.
type FitzRasterizer struct{}

func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

func (r *FitzRasterizer) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPage() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Render(page int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
