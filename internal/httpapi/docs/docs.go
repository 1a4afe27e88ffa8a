// Package docs holds the OpenAPI document served by the swagger UI.
// Regenerate with `swag init -g cmd/phrased/docs.go -o internal/httpapi/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List catalog and installed models",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}}
            }
        },
        "/models/{id}/download": {
            "post": {
                "produces": ["application/json"],
                "summary": "Start acquiring a catalog model",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.DownloadStatus"}},
                    "404": {"description": "Unknown model", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Acquisition already running", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/download": {
            "get": {
                "produces": ["application/json"],
                "summary": "Current acquisition state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DownloadStatus"}}}
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "Cancel the running acquisition",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DownloadStatus"}}}
            }
        },
        "/download/events": {
            "get": {
                "produces": ["text/event-stream"],
                "summary": "Stream acquisition state snapshots",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Translate and rephrase text",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.GenerateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GenerateResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Engine unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/unload": {
            "post": {
                "summary": "Release the loaded model",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        }
    },
    "definitions": {
        "types.ModelDescriptor": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "gemma-2-2b"},
                "name": {"type": "string", "example": "Gemma 2 2B (Recommended)"},
                "repo_id": {"type": "string", "example": "mlx-community/gemma-2-2b-it-4bit"},
                "size_description": {"type": "string", "example": "~1.6 GB"},
                "size_bytes": {"type": "integer", "example": 1600000000},
                "ram_required": {"type": "string", "example": "8 GB"},
                "description": {"type": "string"}
            }
        },
        "types.InstalledModel": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "catalog": {"type": "array", "items": {"$ref": "#/definitions/types.ModelDescriptor"}},
                "installed": {"type": "array", "items": {"$ref": "#/definitions/types.InstalledModel"}}
            }
        },
        "types.DownloadStatus": {
            "type": "object",
            "properties": {
                "is_downloading": {"type": "boolean"},
                "progress": {"type": "number"},
                "current_file_name": {"type": "string"},
                "bytes_downloaded": {"type": "integer"},
                "total_bytes": {"type": "integer"},
                "formatted_progress": {"type": "string"},
                "status_message": {"type": "string"},
                "error": {"type": "string"},
                "result_path": {"type": "string"},
                "strategy": {"type": "string"},
                "canceled": {"type": "boolean"},
                "attempt": {"type": "integer"}
            }
        },
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "Ciao, domani non ci sono"},
                "model_path": {"type": "string"}
            }
        },
        "types.GenerateResponse": {
            "type": "object",
            "properties": {
                "output": {"type": "string"},
                "duration_ms": {"type": "integer"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string"},
                "loaded": {"type": "boolean"},
                "model_path": {"type": "string"},
                "engine": {"type": "string"},
                "last_error": {"type": "string"},
                "loads_total": {"type": "integer"},
                "generations_total": {"type": "integer"},
                "download": {"$ref": "#/definitions/types.DownloadStatus"},
                "uptime_seconds": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "phrased API",
	Description:      "HTTP API for model acquisition and local translation inference.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
