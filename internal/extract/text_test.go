package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestText_Plain(t *testing.T) {
	got := Text([]byte("Name: Jane Smith\n"), "notes.txt")
	assert.Equal(t, "Name: Jane Smith\n", got)
}

func TestText_Docx(t *testing.T) {
	data := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Care Certificate</w:t></w:r></w:p>
    <w:p><w:r><w:t>Name: </w:t></w:r><w:r><w:t>Jane Smith</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got := Text(data, "certificate.docx")

	assert.Contains(t, got, "Care Certificate\n")
	assert.Contains(t, got, "Name: Jane Smith\n")
}

func TestText_Unreadable(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"corrupt pdf", []byte("not really a pdf"), "scan.pdf"},
		{"corrupt docx", []byte("not a zip archive"), "cv.docx"},
		{"docx without document part", func() []byte {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			w, _ := zw.Create("unrelated.xml")
			w.Write([]byte("<x/>"))
			zw.Close()
			return buf.Bytes()
		}(), "cv.docx"},
		{"unsupported extension", []byte("binary"), "photo.png"},
		{"no extension", []byte("binary"), "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Text(tt.data, tt.filename))
		})
	}
}
