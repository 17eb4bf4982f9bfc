// Package qr renders checkpoint scan URLs as printable QR codes.
package qr

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// Size is the edge length of generated images in pixels.
const Size = 400

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9čďěňřšťůýžČĎĚŇŘŠŤŮÝŽ ]`)

// ScanURL is the address a checkpoint's QR code points at.
func ScanURL(appURL string, gameID uuid.UUID, qrToken string) string {
	return fmt.Sprintf("%s/game/%s/scan/%s", appURL, gameID, qrToken)
}

func PNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL returns the PNG inlined as a data: URL for direct use in <img>.
func DataURL(content string) (string, error) {
	png, err := PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

type Item struct {
	Filename string
	Content  string
}

// FileName numbers a checkpoint's image so the archive sorts in game order.
// position starts at 1.
func FileName(position int, name string) string {
	return fmt.Sprintf("%02d_%s.png", position, unsafeFileChars.ReplaceAllString(name, "_"))
}

// WriteZip streams one PNG per item into a zip archive.
func WriteZip(w io.Writer, items []Item) error {
	zw := zip.NewWriter(w)
	for _, it := range items {
		png, err := PNG(it.Content)
		if err != nil {
			return err
		}
		f, err := zw.Create(it.Filename)
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", it.Filename, err)
		}
		if _, err := f.Write(png); err != nil {
			return fmt.Errorf("zip entry %s: %w", it.Filename, err)
		}
	}
	return zw.Close()
}
