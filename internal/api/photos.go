package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dvcrn/eventpix-client/internal/client"
)

func (a *API) ListPhotos(ctx context.Context, galleryID, page int) (*Page[Photo], error) {
	return getPage[Photo](ctx, a, fmt.Sprintf("/galleries/%d/photos/", galleryID), page)
}

// UploadPhoto sends image as the multipart "image" field. The form is
// buffered in memory so it can be replayed after a session refresh.
func (a *API) UploadPhoto(ctx context.Context, galleryID int, filename string, image io.Reader) (*Photo, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var p Photo
	err = a.c.Call(ctx, client.Request{
		Method:      http.MethodPost,
		Path:        fmt.Sprintf("/galleries/%d/photos/", galleryID),
		RawBody:     buf.Bytes(),
		ContentType: form.FormDataContentType(),
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) Like(ctx context.Context, photoID int) (*LikeStatus, error) {
	var s LikeStatus
	if err := a.c.Post(ctx, fmt.Sprintf("/photos/%d/like/", photoID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *API) Unlike(ctx context.Context, photoID int) (*LikeStatus, error) {
	var s LikeStatus
	if err := a.c.Delete(ctx, fmt.Sprintf("/photos/%d/like/", photoID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
