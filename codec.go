package courier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"

	// multipartFileField is the field name used when a bare *Blob body is
	// wrapped into a multipart container.
	multipartFileField = "file"
)

// Blob is a named binary payload. Decoded binary responses (images, PDFs,
// archives, office documents) arrive as a *Blob; a *Blob request body is
// wrapped into a multipart container under the "file" field.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// FormFile is one file part of a multipart container.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// FormData is a multipart/form-data container for both request bodies and
// decoded multipart responses.
type FormData struct {
	Values url.Values
	Files  []FormFile
}

// NewFormData creates an empty container.
func NewFormData() *FormData {
	return &FormData{Values: url.Values{}}
}

// Set assigns a plain field value.
func (f *FormData) Set(field, value string) *FormData {
	f.Values.Set(field, value)
	return f
}

// AddFile appends a file part.
func (f *FormData) AddFile(field, name string, data []byte, contentType string) *FormData {
	f.Files = append(f.Files, FormFile{Field: field, Name: name, ContentType: contentType, Data: data})
	return f
}

// blobPrefixes are the media-type families decoded as *Blob handles.
var blobPrefixes = []string{
	"image/",
	"audio/",
	"video/",
	"application/pdf",
	"application/zip",
	"application/gzip",
	"application/x-tar",
	"application/msword",
	"application/vnd.",
}

// normalizeMediaType lowercases the media type and strips its parameters.
func normalizeMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func isJSONType(mediaType string) bool {
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

func isBlobType(mediaType string) bool {
	for _, prefix := range blobPrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// DecodeBody applies the media-type decode table to raw response bytes.
// It is exported for cache backends that persist raw envelopes and need to
// reconstruct the decoded body on load. The second result is false when
// the decode fell back or failed.
func DecodeBody(header http.Header, body []byte, logger Logger) (interface{}, bool) {
	if logger == nil {
		logger = NoopLogger{}
	}
	return decodeBody(header, body, logger)
}

// decodeBody selects a decode strategy by normalized media-type prefix.
// Failures never abort the call: they degrade to a nil body and a warning
// on the diagnostic sink. The second result is false when the decode fell
// back or failed, so the caller can count diagnostics.
func decodeBody(header http.Header, body []byte, logger Logger) (interface{}, bool) {
	if len(body) == 0 {
		return nil, true
	}

	contentType := header.Get(contentTypeHeader)
	mediaType := normalizeMediaType(contentType)

	switch {
	case mediaType == "":
		logger.Warn("response has no content type, decoding as text")
		return string(body), false

	case isJSONType(mediaType):
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			logger.Warn("failed to decode JSON body", "error", err.Error())
			return nil, false
		}
		return parsed, true

	case strings.HasPrefix(mediaType, "text/"):
		return string(body), true

	case mediaType == "multipart/form-data":
		form, err := decodeMultipart(contentType, body)
		if err != nil {
			logger.Warn("failed to decode multipart body", "error", err.Error())
			return nil, false
		}
		return form, true

	case mediaType == "application/octet-stream":
		return append([]byte(nil), body...), true

	case isBlobType(mediaType):
		return &Blob{ContentType: mediaType, Data: append([]byte(nil), body...)}, true

	default:
		logger.Warn("unexpected content type, decoding as text", "contentType", mediaType)
		return string(body), false
	}
}

func decodeMultipart(contentType string, body []byte) (*FormData, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, fmt.Errorf("multipart body without boundary")
	}

	form := NewFormData()
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		if part.FileName() == "" {
			form.Values.Add(part.FormName(), string(data))
			continue
		}
		form.Files = append(form.Files, FormFile{
			Field:       part.FormName(),
			Name:        part.FileName(),
			ContentType: part.Header.Get(contentTypeHeader),
			Data:        data,
		})
	}
	return form, nil
}

// encodeBody turns the request payload into a transport reader, mutating
// the request headers where the strategy requires it:
//
//   - *FormData is written as multipart; the codec owns the boundary, so
//     Content-Type is replaced with the boundary-carrying value.
//   - *Blob is wrapped into a multipart container under the "file" field.
//   - string, []byte and url.Values pass through unchanged.
//   - nil passes through as an absent body.
//   - anything else is serialized to JSON text; Content-Type is set to
//     application/json only when the caller has not set it explicitly.
func encodeBody(req *Request) (io.Reader, error) {
	switch body := req.Body.(type) {
	case nil:
		return nil, nil

	case *FormData:
		return encodeMultipart(req, body)

	case *Blob:
		name := body.Name
		if name == "" {
			name = multipartFileField
		}
		form := NewFormData().AddFile(multipartFileField, name, body.Data, body.ContentType)
		req.DeleteHeader(contentTypeHeader)
		return encodeMultipart(req, form)

	case string:
		return strings.NewReader(body), nil

	case []byte:
		return bytes.NewReader(body), nil

	case url.Values:
		return strings.NewReader(body.Encode()), nil

	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("courier: encode request body: %w", err)
		}
		if _, explicit := req.Header(contentTypeHeader); !explicit {
			req.SetHeader(contentTypeHeader, contentTypeJSON)
		}
		return bytes.NewReader(data), nil
	}
}

func encodeMultipart(req *Request, form *FormData) (io.Reader, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, values := range form.Values {
		for _, value := range values {
			if err := writer.WriteField(field, value); err != nil {
				return nil, fmt.Errorf("courier: encode multipart field %q: %w", field, err)
			}
		}
	}
	for _, file := range form.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
		if file.ContentType != "" {
			header.Set(contentTypeHeader, file.ContentType)
		} else {
			header.Set(contentTypeHeader, "application/octet-stream")
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("courier: encode multipart file %q: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("courier: encode multipart file %q: %w", file.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("courier: finalize multipart body: %w", err)
	}

	// The writer owns the boundary, so any explicit content type is replaced.
	req.SetHeader(contentTypeHeader, writer.FormDataContentType())
	return &buf, nil
}
