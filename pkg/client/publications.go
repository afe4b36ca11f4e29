package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// PublicationService handles publication API calls
type PublicationService struct {
	client *Client
}

// Image is a file attached to a create or modify request
type Image struct {
	Name string
	Data []byte
}

// CreatePublicationRequest represents a request to create a publication
type CreatePublicationRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Rating      float64    `json:"rating,omitempty"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    string     `json:"category,omitempty"`
	RefLink     string     `json:"refLink"`
}

// UpdatePublicationRequest represents a request to modify a publication
type UpdatePublicationRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	RefTime     *time.Time `json:"refTime,omitempty"`
	Category    *string    `json:"category,omitempty"`
	RefLink     *string    `json:"refLink,omitempty"`
}

// List retrieves a page of publications
func (s *PublicationService) List(ctx context.Context, opts *ListOptions) (*PublicationList, error) {
	return s.list(ctx, "/api/v1/resources", opts)
}

// ListByUser retrieves a page of the publications owned by userID
func (s *PublicationService) ListByUser(ctx context.Context, userID int64, opts *ListOptions) (*PublicationList, error) {
	return s.list(ctx, fmt.Sprintf("/api/v1/resources/user/%d", userID), opts)
}

// Get retrieves a single publication with its owner
func (s *PublicationService) Get(ctx context.Context, id string) (*Publication, error) {
	var pub Publication
	if _, err := s.client.doRequest(ctx, "GET", "/api/v1/resources/"+url.PathEscape(id), nil, &pub); err != nil {
		return nil, err
	}
	return &pub, nil
}

// Create creates a publication. With images the request is sent as
// multipart/form-data and the images are stored in order.
func (s *PublicationService) Create(ctx context.Context, req CreatePublicationRequest, images ...Image) (*Publication, error) {
	var pub Publication
	if len(images) == 0 {
		if _, err := s.client.doRequest(ctx, "POST", "/api/v1/resources", req, &pub); err != nil {
			return nil, err
		}
		return &pub, nil
	}

	fields := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"refLink":     req.RefLink,
	}
	if req.Rating != 0 {
		fields["rating"] = strconv.FormatFloat(req.Rating, 'f', -1, 64)
	}
	if req.RefTime != nil {
		fields["refTime"] = req.RefTime.UTC().Format(time.RFC3339)
	}
	if req.Category != "" {
		fields["category"] = req.Category
	}

	if err := s.sendMultipart(ctx, "POST", "/api/v1/resources", fields, images, &pub); err != nil {
		return nil, err
	}
	return &pub, nil
}

// Update modifies a publication. Images, when given, replace the stored list.
func (s *PublicationService) Update(ctx context.Context, id string, req UpdatePublicationRequest, images ...Image) (*Publication, error) {
	path := "/api/v1/resources/modify/" + url.PathEscape(id)

	var pub Publication
	if len(images) == 0 {
		if _, err := s.client.doRequest(ctx, "PATCH", path, req, &pub); err != nil {
			return nil, err
		}
		return &pub, nil
	}

	fields := map[string]string{}
	setIf := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setIf("title", req.Title)
	setIf("description", req.Description)
	setIf("category", req.Category)
	setIf("refLink", req.RefLink)
	if req.Rating != nil {
		fields["rating"] = strconv.FormatFloat(*req.Rating, 'f', -1, 64)
	}
	if req.RefTime != nil {
		fields["refTime"] = req.RefTime.UTC().Format(time.RFC3339)
	}

	if err := s.sendMultipart(ctx, "PATCH", path, fields, images, &pub); err != nil {
		return nil, err
	}
	return &pub, nil
}

// Delete deletes a publication
func (s *PublicationService) Delete(ctx context.Context, id string) error {
	_, err := s.client.doRequest(ctx, "DELETE", "/api/v1/resources/delete/"+url.PathEscape(id), nil, nil)
	return err
}

func (s *PublicationService) list(ctx context.Context, path string, opts *ListOptions) (*PublicationList, error) {
	if q := opts.encode(); q != "" {
		path += "?" + q
	}

	var items []Publication
	env, err := s.client.doRequest(ctx, "GET", path, nil, &items)
	if err != nil {
		return nil, err
	}
	return newPublicationList(items, env), nil
}

func (s *PublicationService) sendMultipart(ctx context.Context, method, path string, fields map[string]string, images []Image, result interface{}) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	for i, img := range images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image-%d", i)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		h.Set("Content-Type", mimetype.Detect(img.Data).String())
		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return fmt.Errorf("failed to write image %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	_, err := s.client.send(ctx, method, path, mw.FormDataContentType(), &body, result)
	return err
}

func (o *ListOptions) encode() string {
	if o == nil {
		return ""
	}
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(o.Sort) > 0 {
		q.Set("sort", strings.Join(o.Sort, ","))
	}
	if len(o.Fields) > 0 {
		q.Set("fields", strings.Join(o.Fields, ","))
	}
	for k, v := range o.Filter {
		q.Set(k, v)
	}
	return q.Encode()
}

func newPublicationList(items []Publication, env *envelope) *PublicationList {
	list := &PublicationList{Items: items}
	if items == nil {
		list.Items = []Publication{}
	}
	if env.Results != nil {
		list.Results = *env.Results
	}
	if env.TotalResults != nil {
		list.TotalResults = *env.TotalResults
	}
	if env.TotalPages != nil {
		list.TotalPages = *env.TotalPages
	}
	if env.Page != nil {
		list.Page = *env.Page
	}
	return list
}
