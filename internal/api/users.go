package api

import (
	"net/http"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/config"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointUsers, access.ActionList)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	body, err := admission.List(ctx, s.pipeline, ep, req, s.catalog.Users.List, s.catalog.UserViewer(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) retrieveUser(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointUsers, access.ActionRetrieve)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	view, err := admission.Retrieve(ctx, s.pipeline, ep, req, s.catalog.Users.Get, s.catalog.UserViewer(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
