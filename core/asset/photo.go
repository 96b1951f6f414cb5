package asset

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/topsell/tams/core"
)

const (
	MaxPhotoSize   = 10 << 20 // 10MB
	thumbnailWidth = 200
)

var photoExts = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
}

// Upload is a photo received from a technician.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// check sniffs the content type; only PNG, JPEG and GIF photos up to MaxPhotoSize are accepted.
func (up *Upload) check() error {
	if len(up.Data) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "photos", Error: fmt.Sprintf("%s is empty", up.Filename)})
	}
	if len(up.Data) > MaxPhotoSize {
		return core.NewValidationError(nil, core.FieldError{Field: "photos", Error: fmt.Sprintf("%s is larger than 10MB", up.Filename)})
	}
	ct := http.DetectContentType(up.Data)
	if _, ok := photoExts[ct]; !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "photos", Error: fmt.Sprintf("%s is not a PNG, JPG or GIF image", up.Filename)})
	}
	up.ContentType = ct
	return nil
}

// ext is the extension of the sniffed content type; the client file name is ignored.
func (up Upload) ext() string {
	return photoExts[up.ContentType]
}

func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decoding image")
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, errors.Wrap(err, "encoding thumbnail")
	}
	return buf.Bytes(), nil
}
