package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/services"
)

const maxBodyBytes = 1 << 20

var acceptedMediaTypes = []string{"application/json", "application/x-www-form-urlencoded"}

// decodeFields reads a JSON or form-encoded body into raw fields. A missing
// or blank body decodes to no fields.
func decodeFields(r *http.Request) (services.Fields, error) {
	fields := services.Fields{}
	if r.Body == nil || r.Body == http.NoBody {
		return fields, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errs.NewBadRequestError("failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, errs.NewMaxBodySizeExceededError(maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errs.NewMalformedPayloadError("form", err)
		}
		for key, v := range values {
			if len(v) > 0 {
				fields[key] = v[0]
			}
		}
	case "application/json", "":
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, errs.NewInvalidJSONError(err)
		}
	default:
		return nil, errs.NewUnsupportedMediaTypeError(mediaType, acceptedMediaTypes)
	}
	return fields, nil
}
