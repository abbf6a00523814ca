package mimetypes

import (
	"mime"
	"strings"
)

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"
	OctetStream     MIME = "application/octet-stream"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	VideoMP4  MIME = "video/mp4"
	AudioMPEG MIME = "audio/mpeg"
)

// Base strips the parameters of a detected content type: "text/plain; charset=utf-8" is "text/plain".
func Base(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// Family is the top level type, "image" for "image/png".
func (m MIME) Family() string {
	family, _, _ := strings.Cut(string(m), "/")
	return family
}
