/*
Package grade wraps the grade endpoints of the backend.

The backend records grades per student and classroom, so Create and Update
both upsert through PUT /students/{student_id}/grades.
*/
package grade

import (
	"context"
	"encoding/json"
	"math"

	"schoolhub/internal/app/resource"
)

const basePath = "/grades"

// Entry is a grade for one student in one classroom.
type Entry struct {
	StudentID   string
	ClassroomID string
	Grade       float64
}

type upsertBody struct {
	ClassroomID string  `json:"classroom_id"`
	Grade       float64 `json:"grade"`
}

type Service struct {
	api resource.API
}

func New(api resource.API) *Service {
	return &Service{api: api}
}

// List returns a page of grades.
func (s *Service) List(ctx context.Context, params resource.ListParams) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.api.Get(ctx, basePath, params.Values(), &out)
	return out, err
}

func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.get(ctx, id)
}

// Create records a grade.
func (s *Service) Create(ctx context.Context, e Entry) (json.RawMessage, error) {
	return s.upsert(ctx, e)
}

// Update replaces the grade a student holds in a classroom.
func (s *Service) Update(ctx context.Context, e Entry) (json.RawMessage, error) {
	return s.upsert(ctx, e)
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

// ByClassroom lists the grades given in a classroom.
func (s *Service) ByClassroom(ctx context.Context, classroomID string) (json.RawMessage, error) {
	return s.get(ctx, "classroom", classroomID)
}

// ByStudent lists the grades of a student.
func (s *Service) ByStudent(ctx context.Context, studentID string) (json.RawMessage, error) {
	return s.get(ctx, "student", studentID)
}

func (s *Service) get(ctx context.Context, ids ...string) (json.RawMessage, error) {
	path, err := resource.Path(basePath, ids...)
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.api.Get(ctx, path, nil, &out)
	return out, err
}

func (s *Service) upsert(ctx context.Context, e Entry) (json.RawMessage, error) {
	path, err := resource.Path("/students", e.StudentID, "grades")
	if err != nil {
		return nil, err
	}
	var out json.RawMessage
	err = s.api.Put(ctx, path, upsertBody{ClassroomID: e.ClassroomID, Grade: e.Grade}, &out)
	return out, err
}

// Letter maps a numeric grade to its letter: 90 and up is A, then B, C and D
// in steps of ten, anything lower is F. NaN has no letter and yields "N/A".
func Letter(score float64) string {
	switch {
	case math.IsNaN(score):
		return "N/A"
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
