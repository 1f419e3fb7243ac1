package certificates

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// encodeQR renders the verification URL as a PNG and returns it
// base64-encoded for storage and transport.
func encodeQR(url string, sizePixels int) (string, error) {
	if sizePixels <= 0 {
		sizePixels = 256
	}
	png, err := qrcode.Encode(url, qrcode.High, sizePixels)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
