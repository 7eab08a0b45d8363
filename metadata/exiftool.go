package metadata

import (
	"fmt"

	"github.com/WerlingM/privacy-exif-cleaner/tags"

	exiftool "github.com/barasher/go-exiftool"
)

// fileSystemKeys are exiftool output fields that describe the file or the
// tool rather than embedded metadata.
var fileSystemKeys = map[string]struct{}{
	"SourceFile":          {},
	"ExifToolVersion":     {},
	"FileName":            {},
	"Directory":           {},
	"FileSize":            {},
	"FileModifyDate":      {},
	"FileAccessDate":      {},
	"FileInodeChangeDate": {},
	"FilePermissions":     {},
	"FileType":            {},
	"FileTypeExtension":   {},
	"MIMEType":            {},
	"EncodingProcess":     {},
	"BitsPerSample":       {},
	"ColorComponents":     {},
	"YCbCrSubSampling":    {},
	"ImageWidth":          {},
	"ImageHeight":         {},
	"ImageSize":           {},
	"Megapixels":          {},
}

// ExifToolDecoder reads metadata through a resident exiftool process in
// stay_open mode. Each worker owns its own instance; the type is not safe
// for concurrent use.
type ExifToolDecoder struct {
	et *exiftool.Exiftool
}

func NewExifToolDecoder(binary string) (*ExifToolDecoder, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("starting exiftool: %w", err)
	}
	return &ExifToolDecoder{et: et}, nil
}

func (d *ExifToolDecoder) Decode(path string, data []byte) ([]Field, error) {
	if !HasMetadata(data) {
		return nil, nil
	}
	metas := d.et.ExtractMetadata(path)
	if len(metas) == 0 {
		return nil, nil
	}
	meta := metas[0]
	if meta.Err != nil {
		return nil, &DecodeError{Path: path, Err: meta.Err}
	}

	fields := make([]Field, 0, len(meta.Fields))
	for key, value := range meta.Fields {
		if _, skip := fileSystemKeys[key]; skip {
			continue
		}
		fields = append(fields, Field{
			ID:    tags.ID(key),
			Value: fmt.Sprint(value),
		})
	}
	sortFields(fields)
	return fields, nil
}

func (d *ExifToolDecoder) Close() {
	if d.et != nil {
		_ = d.et.Close()
	}
}
