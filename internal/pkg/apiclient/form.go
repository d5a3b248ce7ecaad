package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"
)

// FormData is a multipart body. Its boundary-bearing content type is taken
// from the writer, never forced to JSON.
type FormData struct {
	buf    bytes.Buffer
	w      *multipart.Writer
	closed bool
}

func NewFormData() *FormData {
	f := &FormData{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *FormData) WriteField(name, value string) error {
	return f.w.WriteField(name, value)
}

func (f *FormData) WriteFile(field, filename string, r io.Reader) error {
	part, err := f.w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

func (f *FormData) ContentType() string {
	return f.w.FormDataContentType()
}

// reader finalizes the form and returns its encoded bytes.
func (f *FormData) reader() (io.Reader, error) {
	if !f.closed {
		if err := f.w.Close(); err != nil {
			return nil, err
		}
		f.closed = true
	}
	return bytes.NewReader(f.buf.Bytes()), nil
}
