package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/core"
	"github.com/team-pogie-react/page-service/internal/reqctx"
)

// routeAttributes maps a page type to the attribute its /api/pages/:pageType/:value
// route fills.
var routeAttributes = map[string]string{
	"make":     core.AttrMake,
	"part":     core.AttrPart,
	"category": core.AttrCategory,
	"brand":    core.AttrBrand,
	"product":  core.AttrSKU,
}

const codeNotReady = "NOT_READY"

func (s *Server) handlePage(c *gin.Context) {
	pageType := c.Param("pageType")

	attrs := core.Attributes{}
	if value := c.Param("value"); value != "" {
		key, ok := routeAttributes[pageType]
		if !ok {
			writeError(c, apierr.NotFound("page type %q takes no path attribute", pageType))
			return
		}
		attrs[key] = value
	}

	body, err := s.readBody(c)
	if err != nil {
		writeError(c, err)
		return
	}

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	resp, err := s.engine.Handle(c.Request.Context(), pageType, core.Request{
		Source: reqctx.Source{
			Body:   body,
			Query:  c.Request.URL.Query(),
			Params: params,
		},
		Attributes: attrs,
	})
	if err != nil {
		_ = c.Error(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// readBody decodes a JSON object body, keeping numbers as json.Number.
// GET requests and empty bodies yield nil.
func (s *Server) readBody(c *gin.Context) (map[string]any, error) {
	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return nil, nil
	}
	if ct := c.ContentType(); ct != "" && !strings.HasSuffix(ct, "json") {
		return nil, apierr.New(http.StatusUnsupportedMediaType, apierr.CodeInvalidRequest, "body must be JSON")
	}

	r := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierr.New(http.StatusRequestEntityTooLarge, apierr.CodeInvalidRequest, "body exceeds maximum size")
		}
		return nil, apierr.BadRequest(apierr.CodeInvalidRequest, "invalid JSON body: %v", err)
	}
	return body, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	if err := s.engine.Ready(c.Request.Context()); err != nil {
		_ = c.Error(err)
		writeError(c, apierr.New(http.StatusServiceUnavailable, codeNotReady, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeError(c, apierr.NotFound("no route for %s %s", c.Request.Method, c.Request.URL.Path))
}

// writeError renders err as {message, status, code} with the matching HTTP status.
func writeError(c *gin.Context, err error) {
	ae := apierr.From(err)
	c.AbortWithStatusJSON(ae.Status, ae)
}
