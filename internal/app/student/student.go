// Package student wraps the student and profile endpoints of the backend.
package student

import (
	"context"
	"encoding/json"

	"schoolhub/internal/app/resource"
)

const (
	basePath    = "/students"
	profilePath = "/profile"
)

type Service struct {
	api resource.API
}

func New(api resource.API) *Service {
	return &Service{api: api}
}

// List returns a page of students.
func (s *Service) List(ctx context.Context, params resource.ListParams) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Get(ctx, basePath, params.Values(), &out)
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	path, err := resource.Path(basePath, id)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.api.Get(ctx, path, nil, &out)
	return out, err
}

func (s *Service) Create(ctx context.Context, data map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Post(ctx, basePath, data, &out)
	return out, err
}

func (s *Service) Update(ctx context.Context, id string, data map[string]any) (json.RawMessage, error) {
	path, err := resource.Path(basePath, id)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.api.Put(ctx, path, data, &out)
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) (json.RawMessage, error) {
	path, err := resource.Path(basePath, id)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.api.Delete(ctx, path, &out)
	return out, err
}

// Profile returns the signed-in student's own record.
func (s *Service) Profile(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Get(ctx, profilePath, nil, &out)
	return out, err
}

// UpdateProfile changes the signed-in student's own record.
func (s *Service) UpdateProfile(ctx context.Context, data map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Put(ctx, profilePath, data, &out)
	return out, err
}
