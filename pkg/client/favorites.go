package client

import (
	"context"
	"net/url"
)

// FavoriteService handles the favorites of the authenticated user
type FavoriteService struct {
	client *Client
}

// List retrieves a page of favorite publications
func (s *FavoriteService) List(ctx context.Context, opts *ListOptions) (*PublicationList, error) {
	path := "/api/v1/resources/fav"
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

// Toggle adds the publication to the favorites or removes it when present
func (s *FavoriteService) Toggle(ctx context.Context, publicationID string) (*ToggleResult, error) {
	var res ToggleResult
	if _, err := s.client.doRequest(ctx, "GET", "/api/v1/resources/fav/"+url.PathEscape(publicationID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
