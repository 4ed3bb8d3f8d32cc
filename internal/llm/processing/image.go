package processing

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

type ImageData struct {
	MediaType string
	Data      string // base64 encoded
}

// magic prefixes of base64 encoded image files, for workers that return bare base64
var base64Signatures = map[string]string{
	"iVBORw0KGgo": "image/png",
	"/9j/":        "image/jpeg",
	"UklGR":       "image/webp",
	"R0lGOD":      "image/gif",
}

// ParseDataURI splits a base64 data URI (data:image/png;base64,....) into its parts.
func ParseDataURI(uri string) (*ImageData, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, errors.New("not a data URI")
	}

	comma := strings.Index(uri, ",")
	if comma == -1 {
		return nil, errors.New("invalid data URI")
	}

	meta := uri[len("data:"):comma]
	data := uri[comma+1:]

	parts := strings.Split(meta, ";")
	mediaType := parts[0]
	if mediaType == "" {
		mediaType = "text/plain"
	}

	isBase64 := false
	for _, p := range parts[1:] {
		if p == "base64" {
			isBase64 = true
			break
		}
	}
	if !isBase64 {
		return nil, errors.New("only base64 data URIs are supported for images")
	}
	if data == "" {
		return nil, errors.New("data URI has no payload")
	}

	return &ImageData{MediaType: mediaType, Data: data}, nil
}

// NormalizeImageURL validates an image reference returned by a provider.
// http(s) URLs pass through, data URIs must carry decodable image data, and bare
// base64 image files are wrapped into a data URI. Anything else is returned as is.
func NormalizeImageURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, nil
	case strings.HasPrefix(ref, "data:"):
		img, err := ParseDataURI(ref)
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(img.MediaType, "image/") {
			return "", fmt.Errorf("data URI has non-image media type %s", img.MediaType)
		}
		if err := checkBase64(img.Data); err != nil {
			return "", err
		}
		return ref, nil
	}

	for prefix, mediaType := range base64Signatures {
		if strings.HasPrefix(ref, prefix) && checkBase64(ref) == nil {
			return fmt.Sprintf("data:%s;base64,%s", mediaType, ref), nil
		}
	}

	return ref, nil
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// checkBase64 accepts padded, unpadded and URL-safe base64, ignoring whitespace.
// Only a prefix is decoded; payloads can be several megabytes.
func checkBase64(data string) error {
	data = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}

	var err error
	for _, enc := range base64Encodings {
		if _, err = enc.DecodeString(head); err == nil {
			return nil
		}
	}
	return fmt.Errorf("invalid base64 image data: %w", err)
}
