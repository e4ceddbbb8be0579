// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/project"
	"github.com/jcodagnone/projectmap/spatial"
)

const maxRing = 10

func (s *Server) listProjects(ctx *gin.Context) {
	var (
		filter project.ListFilter
		verr   project.ValidationError
	)

	if status := ctx.Query("status"); status != "" {
		filter.Status = project.Status(status)
		if !filter.Status.Valid() {
			verr.Add("status", "Select a valid choice. "+status+" is not one of the available choices.")
		}
	}

	filter.Search = ctx.Query("search")

	if near := ctx.Query("near"); near != "" {
		p, err := spatial.ParsePoint(near)
		if err != nil {
			verr.Add("near", err.Error())
		} else {
			filter.Near = &p
		}
	}

	intParam := func(name string, lo, hi int) int {
		raw := ctx.Query(name)
		if raw == "" {
			return 0
		}

		v, err := strconv.Atoi(raw)
		if err != nil || v < lo || v > hi {
			verr.Add(name, "Enter a whole number between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi)+".")
		}

		return v
	}

	filter.Ring = intParam("ring", 0, maxRing)
	filter.Limit = intParam("limit", 0, 1000)
	filter.Offset = intParam("offset", 0, 1<<30)

	if err := verr.OrNil(); err != nil {
		s.writeError(ctx, err)

		return
	}

	projects, err := s.projects.List(ctx.Request.Context(), filter)
	if err != nil {
		s.writeError(ctx, err)

		return
	}

	if projects == nil {
		projects = []*project.Project{}
	}

	ctx.JSON(http.StatusOK, projects)
}

func (s *Server) createProject(ctx *gin.Context) {
	var in project.Input
	if err := ctx.ShouldBindJSON(&in); err != nil {
		s.writeError(ctx, &decodeError{err})

		return
	}

	p, err := s.projects.Create(ctx.Request.Context(), in)
	if err != nil {
		s.writeError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(ctx *gin.Context) {
	id, ok := s.projectID(ctx)
	if !ok {
		return
	}

	p, err := s.projects.Get(ctx.Request.Context(), id)
	if err != nil {
		s.writeError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (s *Server) replaceProject(ctx *gin.Context) {
	s.updateProject(ctx, false)
}

func (s *Server) patchProject(ctx *gin.Context) {
	s.updateProject(ctx, true)
}

func (s *Server) updateProject(ctx *gin.Context, partial bool) {
	id, ok := s.projectID(ctx)
	if !ok {
		return
	}

	var in project.Input
	if err := ctx.ShouldBindJSON(&in); err != nil {
		s.writeError(ctx, &decodeError{err})

		return
	}

	p, err := s.projects.Update(ctx.Request.Context(), id, in, partial)
	if err != nil {
		s.writeError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(ctx *gin.Context) {
	id, ok := s.projectID(ctx)
	if !ok {
		return
	}

	if err := s.projects.Delete(ctx.Request.Context(), id); err != nil {
		s.writeError(ctx, err)

		return
	}

	ctx.Status(http.StatusNoContent)
}

// projectID parses the :uuid path parameter. Malformed identifiers cannot
// match any project and are answered with 404.
func (s *Server) projectID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("uuid"))
	if err != nil {
		s.writeError(ctx, project.ErrNotFound)

		return uuid.Nil, false
	}

	return id, true
}
