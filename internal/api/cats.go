package api

import (
	"context"
	"net/http"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/catalog"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/model"
)

func (s *Server) listCats(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointCats, access.ActionList)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	body, err := admission.List(ctx, s.pipeline, ep, req, s.catalog.Cats.List, s.catalog.CatViewer(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) createCat(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointCats, access.ActionCreate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := admission.Create(r.Context(), s.pipeline, ep, req, func(ctx context.Context) (catalog.CatView, error) {
		var in model.CatInput
		if err := decode(r, w, &in); err != nil {
			return catalog.CatView{}, err
		}
		return s.catalog.CreateCat(ctx, req.Identity.Subject, in)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) retrieveCat(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointCats, access.ActionRetrieve)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	view, err := admission.Retrieve(ctx, s.pipeline, ep, req, s.catalog.Cats.Get, s.catalog.CatViewer(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) updateCat(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointCats, access.ActionUpdate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	partial := r.Method == http.MethodPatch
	view, err := admission.Update(r.Context(), s.pipeline, ep, req, s.catalog.Cats.Get,
		func(ctx context.Context, cur model.Cat) (catalog.CatView, error) {
			var in model.CatInput
			if err := decode(r, w, &in); err != nil {
				return catalog.CatView{}, err
			}
			return s.catalog.UpdateCat(ctx, cur, in, partial)
		})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteCat(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointCats, access.ActionDelete)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := admission.Delete(r.Context(), s.pipeline, ep, req, s.catalog.Cats.Get, s.catalog.DeleteCat); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
