// Package media normalises product images. An image is either a URL, kept as
// it is, or a data: URL carrying the uploaded file, which is re-encoded and
// scaled down so the catalog rows stay small.
package media

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// MaxWidth is the widest image kept; wider uploads are scaled down.
const MaxWidth = 800

// MaxUploadBytes bounds the decoded size of a data URL.
const MaxUploadBytes = 5 << 20

var (
	ErrUnsupported = errors.New("image must be an http(s) URL or a base64 data URL")
	ErrTooLarge    = errors.New("image too large")
)

// Normalize returns the image string to store for a product.
func Normalize(image string) (string, error) {
	image = strings.TrimSpace(image)
	switch {
	case strings.HasPrefix(image, "https://"), strings.HasPrefix(image, "http://"):
		return image, nil
	case strings.HasPrefix(image, "data:"):
		return normalizeDataURL(image)
	}
	return "", ErrUnsupported
}

func normalizeDataURL(s string) (string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", ErrUnsupported
	}
	mime := strings.TrimSuffix(header, ";base64")
	if !strings.HasPrefix(mime, "image/") {
		return "", errors.Wrapf(ErrUnsupported, "media type %q", mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxUploadBytes {
		return "", errors.Wrapf(ErrTooLarge, "limit is %d bytes", MaxUploadBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.Wrap(err, "decode data URL")
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", errors.Wrap(err, "decode image")
	}
	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	format, outMime := imaging.JPEG, "image/jpeg"
	if mime == "image/png" {
		format, outMime = imaging.PNG, "image/png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return "", errors.Wrap(err, "encode image")
	}
	return "data:" + outMime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
