package api

import (
	"context"
	"net/http"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/model"
)

func sameAchievement(a model.Achievement) model.Achievement { return a }

func (s *Server) listAchievements(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointAchievements, access.ActionList)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := admission.List(r.Context(), s.pipeline, ep, req, s.catalog.Achievements.List, sameAchievement)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) createAchievement(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointAchievements, access.ActionCreate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := admission.Create(r.Context(), s.pipeline, ep, req, func(ctx context.Context) (model.Achievement, error) {
		var in model.AchievementInput
		if err := decode(r, w, &in); err != nil {
			return model.Achievement{}, err
		}
		return s.catalog.CreateAchievement(ctx, in)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) retrieveAchievement(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointAchievements, access.ActionRetrieve)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := admission.Retrieve(r.Context(), s.pipeline, ep, req, s.catalog.Achievements.Get, sameAchievement)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) updateAchievement(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointAchievements, access.ActionUpdate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := admission.Update(r.Context(), s.pipeline, ep, req, s.catalog.Achievements.Get,
		func(ctx context.Context, cur model.Achievement) (model.Achievement, error) {
			var in model.AchievementInput
			if err := decode(r, w, &in); err != nil {
				return model.Achievement{}, err
			}
			return s.catalog.UpdateAchievement(ctx, cur, in)
		})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) deleteAchievement(w http.ResponseWriter, r *http.Request) {
	ep, req, err := s.begin(r, config.EndpointAchievements, access.ActionDelete)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = admission.Delete(r.Context(), s.pipeline, ep, req, s.catalog.Achievements.Get, s.catalog.DeleteAchievement)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
