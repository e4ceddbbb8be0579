// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/projectmap/geocoding"
	"github.com/jcodagnone/projectmap/project"
	"go.uber.org/zap"
)

const duplicateNameMessage = "project with this name already exists."

// decodeError wraps a request body that could not be parsed.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "JSON parse error - " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// writeError maps err onto a status code and body. Validation failures are
// reported as a map of field name to messages.
func (s *Server) writeError(ctx *gin.Context, err error) {
	var (
		verr   *project.ValidationError
		decErr *decodeError
		trErr  *geocoding.TransportError
	)

	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, project.ErrDuplicateName):
		ctx.JSON(http.StatusBadRequest, gin.H{"name": []string{duplicateNameMessage}})
	case errors.As(err, &decErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": decErr.Error()})
	case errors.Is(err, project.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.As(err, &trErr):
		s.logger.Error("geocoding provider unavailable", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "geocoding provider unavailable: " + trErr.Type.String()})
	default:
		s.logger.Error("request failed", zap.String("path", ctx.Request.URL.Path), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
