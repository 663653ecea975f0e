package api

import (
	"context"
	"net/http"
	"strconv"

	"orarsync/internal/model"
)

// Reference-entity CRUD. The admin UI creates these lazily when a typed
// name has no match, so create calls tolerate minimal payloads.

// GroupInput is the payload for creating or updating a group.
type GroupInput struct {
	Code           string `json:"code"`
	Year           *int   `json:"year,omitempty"`
	Faculty        string `json:"faculty,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	var out []model.Group
	err := c.do(ctx, http.MethodGet, "/groups/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateGroup(ctx context.Context, in GroupInput) (model.Group, error) {
	var out model.Group
	err := c.do(ctx, http.MethodPost, "/groups/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateGroup(ctx context.Context, id int, in GroupInput) (model.Group, error) {
	var out model.Group
	err := c.do(ctx, http.MethodPut, "/groups/"+strconv.Itoa(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteGroup(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/groups/"+strconv.Itoa(id), nil, nil, nil)
}

// SubjectInput is the payload for creating or updating a subject.
type SubjectInput struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Semester string `json:"semester,omitempty"`
}

func (c *Client) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var out []model.Subject
	err := c.do(ctx, http.MethodGet, "/subjects/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateSubject(ctx context.Context, in SubjectInput) (model.Subject, error) {
	var out model.Subject
	err := c.do(ctx, http.MethodPost, "/subjects/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateSubject(ctx context.Context, id int, in SubjectInput) (model.Subject, error) {
	var out model.Subject
	err := c.do(ctx, http.MethodPut, "/subjects/"+strconv.Itoa(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteSubject(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/subjects/"+strconv.Itoa(id), nil, nil, nil)
}

// ProfessorInput is the payload for creating or updating a professor.
type ProfessorInput struct {
	FullName   string `json:"full_name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
}

func (c *Client) ListProfessors(ctx context.Context) ([]model.Professor, error) {
	var out []model.Professor
	err := c.do(ctx, http.MethodGet, "/professors/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateProfessor(ctx context.Context, in ProfessorInput) (model.Professor, error) {
	var out model.Professor
	err := c.do(ctx, http.MethodPost, "/professors/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateProfessor(ctx context.Context, id int, in ProfessorInput) (model.Professor, error) {
	var out model.Professor
	err := c.do(ctx, http.MethodPut, "/professors/"+strconv.Itoa(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteProfessor(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/professors/"+strconv.Itoa(id), nil, nil, nil)
}

// RoomInput is the payload for creating or updating a room.
type RoomInput struct {
	Code     string `json:"code"`
	Building string `json:"building,omitempty"`
	Capacity *int   `json:"capacity,omitempty"`
}

func (c *Client) ListRooms(ctx context.Context) ([]model.Room, error) {
	var out []model.Room
	err := c.do(ctx, http.MethodGet, "/rooms/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateRoom(ctx context.Context, in RoomInput) (model.Room, error) {
	var out model.Room
	err := c.do(ctx, http.MethodPost, "/rooms/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateRoom(ctx context.Context, id int, in RoomInput) (model.Room, error) {
	var out model.Room
	err := c.do(ctx, http.MethodPut, "/rooms/"+strconv.Itoa(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteRoom(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+strconv.Itoa(id), nil, nil, nil)
}

// CurrentUser returns the account the installed token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := c.do(ctx, http.MethodGet, "/users/", nil, nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in model.UserInput) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodPost, "/users/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int, in model.UserInput) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodPut, "/users/"+strconv.Itoa(id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/users/"+strconv.Itoa(id), nil, nil, nil)
}
