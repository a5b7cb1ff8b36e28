package backend

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotImage is returned for paths without a supported image extension
var ErrNotImage = errors.New("not an image file")

var imageMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// LooksLikeImagePath reports whether p has a supported image extension
func LooksLikeImagePath(p string) bool {
	_, ok := imageMIME[strings.ToLower(filepath.Ext(p))]
	return ok
}

// ImagePart reads a local image, or accepts an existing data URL, and returns
// it as an image content part.
func ImagePart(ref string) (ContentPart, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(strings.ToLower(ref), "data:image/") {
		return ImageURLPart(ref), nil
	}

	url, err := encodeImageToDataURL(expandPath(ref))
	if err != nil {
		return ContentPart{}, err
	}
	return ImageURLPart(url), nil
}

// encodeImageToDataURL converts an image to data URL format
func encodeImageToDataURL(path string) (string, error) {
	mime, ok := imageMIME[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", mime, b64), nil
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
