package media

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader implements Uploader against Cloudinary.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader builds an uploader from account credentials.
// folder is the Cloudinary folder uploads land in.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	return &CloudinaryUploader{client: client, folder: folder}, nil
}

// Upload sends the file to Cloudinary, capping image width at 1200px.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, filename string) (*Result, error) {
	res, err := u.client.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         u.folder,
		Transformation: "w_1200,c_limit",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}

	url := res.SecureURL
	if url == "" {
		url = res.URL
	}

	return &Result{
		URL:    url,
		Width:  res.Width,
		Height: res.Height,
		Format: res.Format,
		Bytes:  res.Bytes,
	}, nil
}
