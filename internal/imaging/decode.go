package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// Meta describes a decoded image payload
type Meta struct {
	Format string
	Width  int
	Height int
}

// EncodeDataURL wraps raw image bytes in a base64 data URL
func EncodeDataURL(format string, data []byte) string {
	mime := mimeFor(format)
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL splits a base64 data URL back into raw bytes
func DecodeDataURL(dataURL string) ([]byte, error) {
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 || !strings.HasPrefix(dataURL, "data:") {
		return nil, fmt.Errorf("not a base64 data URL")
	}

	data, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	return data, nil
}

// Sniff decodes the image header and reports format and dimensions.
// SVG is a text format the stdlib cannot size; it gets zero dimensions.
func Sniff(format string, data []byte) Meta {
	if format == "svg" {
		return Meta{Format: "svg"}
	}

	cfg, decoded, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Meta{Format: format}
	}

	return Meta{
		Format: decoded,
		Width:  cfg.Width,
		Height: cfg.Height,
	}
}

func mimeFor(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}
