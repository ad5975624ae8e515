// Package classroom wraps the classroom endpoints of the backend.
package classroom

import (
	"context"
	"encoding/json"

	"schoolhub/internal/app/resource"
)

const basePath = "/classrooms"

type Service struct {
	api resource.API
}

func New(api resource.API) *Service {
	return &Service{api: api}
}

// List returns a page of classrooms.
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

// Teachers lists the teachers a classroom can be assigned to.
func (s *Service) Teachers(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Get(ctx, "/teachers", nil, &out)
	return out, err
}

// ForAssignment lists the classrooms a student can be enrolled in.
func (s *Service) ForAssignment(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Get(ctx, "/classrooms-for-assignment", nil, &out)
	return out, err
}
