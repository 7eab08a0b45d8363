// Package metadata decodes EXIF fields from image bytes. Two decoders are
// provided: a native one built on goexif/imagemeta and an engine that asks
// a resident exiftool process.
package metadata

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/WerlingM/privacy-exif-cleaner/tags"

	"github.com/bep/imagemeta"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Field is one decoded metadata field with a renderable value.
type Field struct {
	ID    tags.ID
	Value string
}

// Decoder extracts metadata fields from one image. An image without a
// metadata container decodes to an empty field list and a nil error.
type Decoder interface {
	Decode(path string, data []byte) ([]Field, error)
}

// DecodeError reports a metadata container that is present but malformed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed metadata in %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	exifMarker    = []byte("Exif\x00\x00")
	tiffLittleHdr = []byte{0x49, 0x49, 0x2A, 0x00}
	tiffBigHdr    = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// HasMetadata reports whether the bytes carry a metadata container, without
// classifying any of its fields.
func HasMetadata(data []byte) bool {
	if bytes.HasPrefix(data, tiffLittleHdr) || bytes.HasPrefix(data, tiffBigHdr) {
		return true
	}
	return bytes.Contains(data, exifMarker)
}

// SniffFormat returns the extension of the sniffed content type, or the
// empty string when the bytes match no known signature.
func SniffFormat(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}

// Native decodes JPEG and TIFF containers with goexif and PNG/WebP with
// imagemeta. It needs no external tooling.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (d *Native) Decode(path string, data []byte) ([]Field, error) {
	if len(data) == 0 {
		return nil, nil
	}
	kind, _ := filetype.Match(data)
	switch kind {
	case matchers.TypePng, matchers.TypeWebp:
		return decodeWithImagemeta(path, data)
	default:
		return decodeWithGoexif(path, data)
	}
}

func decodeWithGoexif(path string, data []byte) ([]Field, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		if !HasMetadata(data) {
			return nil, nil
		}
		return nil, &DecodeError{Path: path, Err: err}
	}

	var fields []Field
	walkErr := x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		fields = append(fields, Field{
			ID:    tags.ID(name),
			Value: tag.String(),
		})
		return nil
	}))
	if walkErr != nil {
		return nil, &DecodeError{Path: path, Err: walkErr}
	}
	sortFields(fields)
	return fields, nil
}

type walkFunc func(name exif.FieldName, tag *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return f(name, tag)
}

func decodeWithImagemeta(path string, data []byte) ([]Field, error) {
	var fields []Field
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		HandleTag: func(ti imagemeta.TagInfo) error {
			fields = append(fields, Field{
				ID:    tags.ID(ti.Tag),
				Value: fmt.Sprint(ti.Value),
			})
			return nil
		},
	})
	if err != nil {
		if !HasMetadata(data) {
			return nil, nil
		}
		return nil, &DecodeError{Path: path, Err: err}
	}
	sortFields(fields)
	return fields, nil
}

var catalogRank = func() map[tags.ID]int {
	rank := make(map[tags.ID]int)
	for i, id := range tags.Catalog() {
		rank[id] = i
	}
	return rank
}()

// sortFields puts cataloged fields first in catalog order, the rest after
// them alphabetically. Decoder iteration order is not deterministic; the
// rest of the pipeline wants stable findings.
func sortFields(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		ri, iok := catalogRank[fields[i].ID]
		rj, jok := catalogRank[fields[j].ID]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return fields[i].ID < fields[j].ID
		}
	})
}
