package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocumentResult_PageCount(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		metadata map[string]any
		want     int
	}{
		{"from pages", []string{"a", "", "c"}, nil, 3},
		{"metadata wins", []string{"a"}, map[string]any{"pages": 4}, 4},
		{"metadata int64", nil, map[string]any{"pages": int64(7)}, 7},
		{"metadata float", nil, map[string]any{"pages": float64(2)}, 2},
		{"metadata not a number", []string{"a", "b"}, map[string]any{"pages": "two"}, 2},
		{"negative ignored", []string{"a"}, map[string]any{"pages": -1}, 1},
		{"nothing", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocumentResult("/data/in/report.pdf", "embedded", "", tt.pages, tt.metadata)
			assert.Equal(t, tt.want, doc.PageCount)
		})
	}
}

func TestNewDocumentResult_Defaults(t *testing.T) {
	doc := NewDocumentResult("/data/in/report.pdf", "layout", "body", nil, nil)

	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "layout", doc.Backend)
	assert.NotNil(t, doc.Pages)
	assert.NotNil(t, doc.Metadata)
	assert.NotNil(t, doc.Keywords)
	assert.NotNil(t, doc.Entities)
	assert.False(t, doc.Processed)
	assert.False(t, doc.ProcessedAt.IsZero())
}

func TestClone_IsDeep(t *testing.T) {
	doc := NewDocumentResult("a.pdf", "embedded", "text", []string{"p1"}, map[string]any{"Title": "T"})
	doc.Keywords = []string{"alpha"}
	doc.Entities = map[string][]string{"emails": {"a@b.com"}}
	doc.RecordStageError("normalize", "boom")
	doc.Status.Errors = map[string]string{"metadata": "bad"}

	c := doc.Clone()
	c.Pages[0] = "changed"
	c.Keywords[0] = "changed"
	c.Metadata["Title"] = "changed"
	c.Entities["emails"][0] = "changed"
	c.StageErrors["normalize"] = "changed"
	c.Status.Errors["metadata"] = "changed"
	c.Text = "changed"

	assert.Equal(t, "p1", doc.Pages[0])
	assert.Equal(t, "alpha", doc.Keywords[0])
	assert.Equal(t, "T", doc.Metadata["Title"])
	assert.Equal(t, "a@b.com", doc.Entities["emails"][0])
	assert.Equal(t, "boom", doc.StageErrors["normalize"])
	assert.Equal(t, "bad", doc.Status.Errors["metadata"])
	assert.Equal(t, "text", doc.Text)
}
