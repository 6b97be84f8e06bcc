package media

import "strings"

// Format is a derived artifact image format.
type Format string

// Format constants (match file extensions)
const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tif"
)

var extensionFormats = map[string]Format{
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"png":  FormatPNG,
	"gif":  FormatGIF,
	"bmp":  FormatBMP,
	"tif":  FormatTIFF,
	"tiff": FormatTIFF,
}

// FormatFromExtension maps a file extension (with or without the dot) to a
// Format. Unknown extensions are returned as-is so the path stays stable.
func FormatFromExtension(ext string) Format {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	return Format(ext)
}

// Known reports whether the format can be encoded.
func (f Format) Known() bool {
	_, ok := extensionFormats[string(f)]
	return ok
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// MimeType returns the MIME type of artifacts encoded in the format.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
