package render

import (
	"image"

	"github.com/skip2/go-qrcode"
)

const defaultQRCodeSizePx = 64

// GenerateQRCodeImage returns a QR code image for the given payload.
// If payload is empty, it returns (nil, nil).
func GenerateQRCodeImage(payload string, sizePx int) (image.Image, error) {
	if payload == "" {
		return nil, nil
	}
	if sizePx <= 0 {
		sizePx = defaultQRCodeSizePx
	}

	qrCode, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, err
	}
	qrCode.DisableBorder = true

	return qrCode.Image(sizePx), nil
}

// QRCache renders a payload once and reuses the image across frames.
type QRCache struct {
	payload string
	size    int
	img     image.Image
	err     error
}

func (c *QRCache) Get(payload string, sizePx int) (image.Image, error) {
	if c.img != nil || c.err != nil {
		if c.payload == payload && c.size == sizePx {
			return c.img, c.err
		}
	}
	c.payload, c.size = payload, sizePx
	c.img, c.err = GenerateQRCodeImage(payload, sizePx)
	return c.img, c.err
}
