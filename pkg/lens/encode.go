package lens

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// EncodedRequest is a transport-ready request body plus the headers the
// service validates.
type EncodedRequest struct {
	Body        []byte
	Headers     map[string]string
	ContentType string
}

// EncodeRequest builds the multipart upload for one image. The service
// validates field names and their order, so parts are written in a fixed
// sequence: the image bytes first, then the declared metadata, then the
// session sequence id, then the optional language hint.
//
// The current session sequence is embedded without being consumed; the
// client advances the counter only after the transport call returns.
// Encoding is pure and deterministic apart from the multipart boundary.
func EncodeRequest(image ImagePayload, session *Session, languageHint string) (*EncodedRequest, error) {
	if image.Width <= 0 || image.Height <= 0 {
		return nil, &EncodeError{Err: fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, image.Width, image.Height)}
	}
	if image.Width > maxImageDim || image.Height > maxImageDim {
		return nil, &EncodeError{Err: fmt.Errorf("image side exceeds service limit of %dpx: %dx%d", maxImageDim, image.Width, image.Height)}
	}
	if !image.Mime.valid() {
		return nil, &EncodeError{Err: fmt.Errorf("%w: %q", ErrUnsupportedMime, image.Mime)}
	}
	if len(image.Bytes) == 0 {
		return nil, &EncodeError{Err: fmt.Errorf("empty image payload")}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	ph := make(textproto.MIMEHeader)
	ph.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		fieldImage, "image."+image.Mime.Ext()))
	ph.Set("Content-Type", string(image.Mime))
	part, err := w.CreatePart(ph)
	if err != nil {
		return nil, &EncodeError{Err: fmt.Errorf("creating image part: %w", err)}
	}
	if _, err := part.Write(image.Bytes); err != nil {
		return nil, &EncodeError{Err: fmt.Errorf("writing image part: %w", err)}
	}

	seq := strconv.FormatUint(session.Sequence(), 10)
	fields := []struct{ name, value string }{
		{fieldWidth, strconv.Itoa(image.Width)},
		{fieldHeight, strconv.Itoa(image.Height)},
		{fieldMime, string(image.Mime)},
		{fieldSequence, seq},
	}
	if languageHint != "" {
		fields = append(fields, struct{ name, value string }{fieldLanguage, languageHint})
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, &EncodeError{Err: fmt.Errorf("writing field %s: %w", f.name, err)}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &EncodeError{Err: fmt.Errorf("closing multipart body: %w", err)}
	}

	headers := map[string]string{
		"User-Agent":   DefaultUserAgent,
		"Accept":       "*/*",
		headerSequence: seq,
	}
	if cookie, ok := session.Cookie(); ok {
		headers["Cookie"] = cookie
	}

	return &EncodedRequest{
		Body:        buf.Bytes(),
		Headers:     headers,
		ContentType: w.FormDataContentType(),
	}, nil
}
