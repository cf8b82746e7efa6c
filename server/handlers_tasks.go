package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tasuku-app/tasuku/auth"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	tasks, err := s.tasks.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var content string
	if err := decodeBody(r, map[string]*string{"content": &content}, nil); err != nil {
		writeError(w, r, auth.NewAuthError(auth.ErrCodeMissingField, err.Error(), "content"))
		return
	}
	if content == "" {
		writeError(w, r, auth.NewAuthError(auth.ErrCodeMissingField, "content is required", "content"))
		return
	}

	task, err := s.tasks.Create(r.Context(), user.ID, content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	taskID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	done, err := s.tasks.Toggle(r.Context(), user.ID, taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "done": done})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	taskID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := s.tasks.Delete(r.Context(), user.ID, taskID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
