package taxonomy

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNoXMLInArchive is returned when a ZIP payload has no .xml member.
var ErrNoXMLInArchive = errors.New("archive contains no XML file")

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// extractXML returns the XML document carried by payload. A ZIP payload
// yields its first member with an .xml extension; a gzip stream is
// inflated; anything else is taken as XML. A leading BOM is removed.
func extractXML(payload []byte) ([]byte, error) {
	var doc []byte
	var err error

	switch {
	case bytes.HasPrefix(payload, zipMagic):
		doc, err = firstXMLMember(payload)
	case bytes.HasPrefix(payload, gzipMagic):
		doc, err = gunzip(payload)
	default:
		doc = payload
	}
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(doc, utf8BOM), nil
}

func firstXMLMember(payload []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, ErrNoXMLInArchive
}

func gunzip(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
