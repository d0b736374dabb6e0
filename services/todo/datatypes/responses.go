// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// Response status values used in every JSON envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFail    = "fail"
)

// GenericResponse is the {status, message} payload used by the health check
// and by every error response.
type GenericResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TodoData wraps a single todo under a "data" key.
type TodoData struct {
	Data Todo `json:"data"`
}

// SingleTodoResponse is returned by create, get and edit.
type SingleTodoResponse struct {
	Status string   `json:"status"`
	Data   TodoData `json:"data"`
}

// TodoListResponse is returned by list. Results is len(Todos).
type TodoListResponse struct {
	Status  string `json:"status"`
	Results int    `json:"results"`
	Todos   []Todo `json:"todos"`
}

// NewSingleTodoResponse builds the success envelope for one todo.
func NewSingleTodoResponse(todo Todo) SingleTodoResponse {
	return SingleTodoResponse{
		Status: StatusSuccess,
		Data:   TodoData{Data: todo},
	}
}

// NewTodoListResponse builds the success envelope for a page of todos.
// A nil slice is normalised to an empty one so the JSON is [] and not null.
func NewTodoListResponse(todos []Todo) TodoListResponse {
	if todos == nil {
		todos = []Todo{}
	}
	return TodoListResponse{
		Status:  StatusSuccess,
		Results: len(todos),
		Todos:   todos,
	}
}
