package dto

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
)

// ImagesField is the multipart field carrying image files
const ImagesField = "images"

// CreatePublicationRequest represents a publication creation request
type CreatePublicationRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Images      []string   `json:"images,omitempty"`
	Rating      float64    `json:"rating,omitempty"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    string     `json:"category,omitempty"`
	RefLink     string     `json:"refLink"`
}

// ToPublication builds the document to create
func (r CreatePublicationRequest) ToPublication() *publication.Publication {
	p := &publication.Publication{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Images:      r.Images,
		Rating:      r.Rating,
		Category:    r.Category,
		RefLink:     strings.TrimSpace(r.RefLink),
	}
	if r.RefTime != nil {
		t := r.RefTime.UTC()
		p.RefTime = &t
	}
	return p
}

// UpdatePublicationRequest represents a publication modification. Absent
// fields are left untouched.
type UpdatePublicationRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Images      []string   `json:"images,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    *string    `json:"category,omitempty"`
	RefLink     *string    `json:"refLink,omitempty"`
}

// ToPatch converts the request into a domain patch
func (r UpdatePublicationRequest) ToPatch() publication.Patch {
	return publication.Patch{
		Title:       r.Title,
		Description: r.Description,
		Images:      r.Images,
		Rating:      r.Rating,
		RefTime:     r.RefTime,
		Category:    r.Category,
		RefLink:     r.RefLink,
	}
}

// IsMultipart reports whether r carries a multipart/form-data body
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// DecodeCreate reads a creation request from a JSON or multipart body. The
// image files of a multipart body are returned separately.
func DecodeCreate(r *http.Request, maxMemory int64) (CreatePublicationRequest, []*multipart.FileHeader, error) {
	var req CreatePublicationRequest
	if !IsMultipart(r) {
		if err := decodeJSON(r, &req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	form, err := parseMultipart(r, maxMemory)
	if err != nil {
		return req, nil, err
	}
	req.Title = form.Value.get("title")
	req.Description = form.Value.get("description")
	req.Category = form.Value.get("category")
	req.RefLink = form.Value.get("refLink")
	if req.Rating, err = form.Value.float("rating"); err != nil {
		return req, nil, err
	}
	if req.RefTime, err = form.Value.time("refTime"); err != nil {
		return req, nil, err
	}
	return req, form.File[ImagesField], nil
}

// DecodeUpdate reads a modification request from a JSON or multipart body
func DecodeUpdate(r *http.Request, maxMemory int64) (UpdatePublicationRequest, []*multipart.FileHeader, error) {
	var req UpdatePublicationRequest
	if !IsMultipart(r) {
		if err := decodeJSON(r, &req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	form, err := parseMultipart(r, maxMemory)
	if err != nil {
		return req, nil, err
	}
	req.Title = form.Value.ptr("title")
	req.Description = form.Value.ptr("description")
	req.Category = form.Value.ptr("category")
	req.RefLink = form.Value.ptr("refLink")
	if _, ok := form.Value["rating"]; ok {
		rating, err := form.Value.float("rating")
		if err != nil {
			return req, nil, err
		}
		req.Rating = &rating
	}
	if req.RefTime, err = form.Value.time("refTime"); err != nil {
		return req, nil, err
	}
	return req, form.File[ImagesField], nil
}

// BodyTooLarge is the error for request bodies above limit bytes
func BodyTooLarge(limit int64) error {
	return errors.BadRequest(fmt.Sprintf("Request body exceeds the %d byte limit", limit))
}

// bodyError hides parser details from the client.
func bodyError(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return BodyTooLarge(tooLarge.Limit)
	}
	return errors.BadRequest(msg)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return bodyError(err, "Invalid request body")
	}
	return nil
}

type multipartForm struct {
	Value formValues
	File  map[string][]*multipart.FileHeader
}

func parseMultipart(r *http.Request, maxMemory int64) (*multipartForm, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, bodyError(err, "Invalid multipart body")
	}
	return &multipartForm{Value: formValues(r.MultipartForm.Value), File: r.MultipartForm.File}, nil
}

type formValues map[string][]string

func (v formValues) get(key string) string {
	if vs := v[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (v formValues) ptr(key string) *string {
	if vs, ok := v[key]; ok && len(vs) > 0 {
		s := vs[0]
		return &s
	}
	return nil
}

func (v formValues) float(key string) (float64, error) {
	raw := strings.TrimSpace(v.get(key))
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ValidationError("Invalid form field", map[string]string{key: "must be a number"})
	}
	return f, nil
}

var formTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func (v formValues) time(key string) (*time.Time, error) {
	raw := strings.TrimSpace(v.get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range formTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.ValidationError("Invalid form field", map[string]string{key: "must be a date"})
}
