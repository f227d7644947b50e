package perception

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"cropdoc/internal/types"
)

// MaxInlineImageBytes is the largest decoded image sent as inline data.
const MaxInlineImageBytes = 20 << 20

// NormalizedPayload is the canonical form sent to a classifier backend.
// Image payloads carry base64 Data and a MimeType; text payloads carry Text.
type NormalizedPayload struct {
	Kind     types.PayloadKind
	Data     string
	MimeType string
	Text     string
}

// Normalize converts a request payload into its transmission form.
// It performs no I/O.
func Normalize(req types.DiagnosticRequest) (NormalizedPayload, error) {
	switch req.PayloadKind {
	case types.PayloadImage:
		return normalizeImage(req.Image, req.MimeType)
	case types.PayloadText:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return NormalizedPayload{}, fmt.Errorf("%w: observation text is empty", types.ErrInput)
		}
		return NormalizedPayload{Kind: types.PayloadText, Text: text}, nil
	}
	return NormalizedPayload{}, fmt.Errorf("%w: unknown payload kind %q", types.ErrInput, req.PayloadKind)
}

func normalizeImage(image []byte, mimeType string) (NormalizedPayload, error) {
	if len(image) == 0 {
		return NormalizedPayload{}, fmt.Errorf("%w: image is empty", types.ErrInput)
	}

	if bytes.HasPrefix(image, []byte("data:")) {
		return normalizeDataURI(string(image), mimeType)
	}

	if len(image) > MaxInlineImageBytes {
		return NormalizedPayload{}, fmt.Errorf("%w: image is %d bytes, limit is %d", types.ErrInput, len(image), MaxInlineImageBytes)
	}

	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = sniffMimeType(image)
		if mimeType == "" {
			return NormalizedPayload{}, fmt.Errorf("%w: unsupported media type", types.ErrInput)
		}
	}

	return NormalizedPayload{
		Kind:     types.PayloadImage,
		Data:     base64.StdEncoding.EncodeToString(image),
		MimeType: mimeType,
	}, nil
}

// normalizeDataURI strips the "data:<mime>;base64," scheme prefix.
func normalizeDataURI(uri, mimeOverride string) (NormalizedPayload, error) {
	header, data, ok := strings.Cut(uri, ",")
	if !ok {
		return NormalizedPayload{}, fmt.Errorf("%w: data URI has no payload", types.ErrInput)
	}
	header = strings.TrimPrefix(header, "data:")
	mediaType, encoding, _ := strings.Cut(header, ";")
	if !strings.EqualFold(encoding, "base64") {
		return NormalizedPayload{}, fmt.Errorf("%w: data URI must be base64 encoded", types.ErrInput)
	}

	data = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, data)
	if data == "" {
		return NormalizedPayload{}, fmt.Errorf("%w: image is empty", types.ErrInput)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return NormalizedPayload{}, fmt.Errorf("%w: data URI payload is not valid base64: %v", types.ErrInput, err)
	}
	if len(decoded) == 0 {
		return NormalizedPayload{}, fmt.Errorf("%w: image is empty", types.ErrInput)
	}
	if len(decoded) > MaxInlineImageBytes {
		return NormalizedPayload{}, fmt.Errorf("%w: image is %d bytes, limit is %d", types.ErrInput, len(decoded), MaxInlineImageBytes)
	}

	mimeType := strings.TrimSpace(mimeOverride)
	if mimeType == "" {
		mimeType = strings.TrimSpace(mediaType)
	}
	if mimeType == "" {
		mimeType = sniffMimeType(decoded)
	}
	if mimeType == "" {
		return NormalizedPayload{}, fmt.Errorf("%w: unsupported media type", types.ErrInput)
	}

	return NormalizedPayload{Kind: types.PayloadImage, Data: data, MimeType: mimeType}, nil
}

// sniffMimeType returns an image or PDF content type, or "" for anything else.
func sniffMimeType(b []byte) string {
	ct := http.DetectContentType(b)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if strings.HasPrefix(ct, "image/") || ct == "application/pdf" {
		return ct
	}
	return ""
}
