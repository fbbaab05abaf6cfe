// Package document turns uploaded files into plain text.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	TypeText = "txt"
	TypeDocx = "docx"
	TypePDF  = "pdf"
)

// DocumentParseError is returned when a file cannot be read as its declared type.
type DocumentParseError struct {
	FileName string
	Err      error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.FileName, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

var ErrUnsupportedType = errors.New("unsupported file type")

// FileType returns the lower-cased extension of fileName. Names without an
// extension, or whose only dot is the first character, count as plain text.
// A trailing dot yields an empty type, which is unsupported.
func FileType(fileName string) string {
	i := strings.LastIndexByte(fileName, '.')
	if i <= 0 {
		return TypeText
	}
	return strings.ToLower(fileName[i+1:])
}

// IsSupported reports whether Extract can handle fileName.
func IsSupported(fileName string) bool {
	switch FileType(fileName) {
	case TypeText, TypeDocx, TypePDF:
		return true
	}
	return false
}

// Extract reads all of r and returns its text content.
func Extract(r io.Reader, fileName string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &DocumentParseError{FileName: fileName, Err: err}
	}

	var text string
	switch ft := FileType(fileName); ft {
	case TypeText:
		text, err = decodeText(data)
	case TypeDocx:
		text, err = extractDocx(data)
	case TypePDF:
		text, err = extractPDF(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, ft)
	}
	if err != nil {
		return "", &DocumentParseError{FileName: fileName, Err: err}
	}
	return text, nil
}

// decodeText keeps UTF-8 as is and falls back to GB18030 for legacy Chinese files.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", errors.New("docx: word/document.xml not found")
}

// docxText walks WordprocessingML and keeps run text, tabs and line breaks.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: %v", r)
		}
	}()

	pr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pr.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
