package transport

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/civicdata/metasync/pkg/errors"
)

// UploadFile sends data as a multipart/form-data file upload and decodes
// the JSON response into target. Target may be nil.
func (c *Client) UploadFile(ctx context.Context, url, field, filename string, data []byte, target any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return errors.WrapIO("create", "multipart part", err)
	}
	if _, err := part.Write(data); err != nil {
		return errors.WrapIO("write", "multipart part", err)
	}
	if err := writer.Close(); err != nil {
		return errors.WrapIO("close", "multipart body", err)
	}

	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.Do(ctx, http.MethodPost, url, header, buf.Bytes())
	if err != nil {
		return err
	}
	if target == nil {
		return drain(resp)
	}
	return DecodeResponse(resp, target)
}
