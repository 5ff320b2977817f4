package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Package extract converts uploaded case documents into plain text and
// structured facts (dates, qualification mentions, case metadata).

// Text produces best-effort plain text from a document, dispatching on the
// declared format (file extension). It never fails: unreadable content and
// unsupported formats yield an empty string, which downstream treats as a
// data-quality signal. Scanned/image-only PDFs have no text layer and also
// yield empty text; there is no OCR.
func Text(data []byte, filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfText(data)
	case ".docx", ".doc":
		return docxText(data)
	case ".txt", ".text":
		return string(data)
	default:
		return ""
	}
}

// pdfText reads the text layer of each page. The pdf library panics on some
// malformed cross-reference tables; that is treated as unreadable input.
func pdfText(data []byte) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// docxText unpacks the OOXML container and collects the text runs of
// word/document.xml. Paragraph boundaries become newlines.
func docxText(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return ""
	}

	rc, err := doc.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
	return sb.String()
}
