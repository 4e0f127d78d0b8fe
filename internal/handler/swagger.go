package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/finora/finora-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

const (
	swaggerRefPrefix = "#/definitions/"
	openAPIRefPrefix = "#/components/schemas/"
)

// OpenAPIDocument is the OpenAPI 3.0 view of the generated Swagger 2.0 doc
type OpenAPIDocument struct {
	OpenAPI    string         `json:"openapi"`
	Info       map[string]any `json:"info"`
	Servers    []APIServer    `json:"servers"`
	Paths      map[string]any `json:"paths"`
	Components map[string]any `json:"components,omitempty"`
}

// APIServer is an entry of the OpenAPI servers list
type APIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DocsHandler serves /openapi.json with servers derived from the deployment
type DocsHandler struct {
	servers []APIServer
}

// NewDocsHandler advertises the local listener and, when configured, the
// public base URL the API is reachable at
func NewDocsHandler(port, publicURL string) *DocsHandler {
	basePath := docs.SwaggerInfo.BasePath
	servers := []APIServer{{
		URL:         fmt.Sprintf("http://localhost:%s%s", port, basePath),
		Description: "Local",
	}}
	if publicURL != "" {
		servers = append(servers, APIServer{
			URL:         strings.TrimRight(publicURL, "/") + basePath,
			Description: "Public",
		})
	}
	return &DocsHandler{servers: servers}
}

// Servers returns the advertised server list
func (h *DocsHandler) Servers() []APIServer {
	return h.servers
}

// ServeOpenAPI3Spec handles GET /openapi.json
func (h *DocsHandler) ServeOpenAPI3Spec(c echo.Context) error {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "Failed to read API documentation")
	}

	doc, err := h.convert([]byte(raw))
	if err != nil {
		log.Error().Err(err).Msg("Failed to convert swagger doc")
		return NewInternalError(c, "Failed to read API documentation")
	}
	return c.JSON(http.StatusOK, doc)
}

// convert rewrites a Swagger 2.0 document as OpenAPI 3.0
func (h *DocsHandler) convert(raw []byte) (*OpenAPIDocument, error) {
	var swagger map[string]any
	if err := json.Unmarshal(raw, &swagger); err != nil {
		return nil, err
	}

	doc := &OpenAPIDocument{
		OpenAPI:    "3.0.3",
		Servers:    h.servers,
		Paths:      map[string]any{},
		Components: map[string]any{},
	}
	doc.Info, _ = swagger["info"].(map[string]any)
	if paths, ok := swagger["paths"].(map[string]any); ok {
		doc.Paths = rewriteNode(paths).(map[string]any)
	}
	if schemes, ok := swagger["securityDefinitions"].(map[string]any); ok {
		doc.Components["securitySchemes"] = schemes
	}
	if definitions, ok := swagger["definitions"].(map[string]any); ok {
		doc.Components["schemas"] = rewriteNode(definitions)
	}
	return doc, nil
}

// rewriteNode walks a decoded JSON tree, repointing schema references and
// converting non-body parameters
func rewriteNode(node any) any {
	switch v := node.(type) {
	case map[string]any:
		if isParameter(v) {
			return rewriteParameter(v)
		}
		out := make(map[string]any, len(v))
		for key, child := range v {
			if ref, ok := child.(string); ok && key == "$ref" {
				out[key] = strings.Replace(ref, swaggerRefPrefix, openAPIRefPrefix, 1)
				continue
			}
			out[key] = rewriteNode(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = rewriteNode(child)
		}
		return out
	default:
		return node
	}
}

func isParameter(v map[string]any) bool {
	_, hasIn := v["in"]
	_, hasName := v["name"]
	return hasIn && hasName
}

// rewriteParameter moves the inline type fields of a path or query parameter
// under schema. Body parameters are left untouched.
func rewriteParameter(param map[string]any) map[string]any {
	if param["in"] == "body" {
		return param
	}

	out := make(map[string]any)
	for _, key := range []string{"name", "in", "description", "required"} {
		if val, ok := param[key]; ok {
			out[key] = val
		}
	}

	schema := make(map[string]any)
	for _, key := range []string{"type", "format", "enum", "default", "minimum", "maximum"} {
		if val, ok := param[key]; ok {
			schema[key] = val
		}
	}
	if items, ok := param["items"]; ok {
		schema["items"] = rewriteNode(items)
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}
