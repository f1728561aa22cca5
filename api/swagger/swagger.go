package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SICALI Dev Gateway",
        "description": "Local proxy in front of the SICALI backend with health, metrics and export downloads",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Gateway", "description": "Gateway status endpoints"},
        {"name": "Exports", "description": "Signed downloads of rendered grade sheets and attendance summaries"},
        {"name": "Backend", "description": "Requests forwarded to API_BASE_URL"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Gateway"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Gateway"],
                "summary": "Readiness check",
                "description": "Ready when the session store answers and the backend serves /ciclos.",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Store or backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Gateway"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics in Prometheus exposition format"}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string", "description": "Signed link token"}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/{path}": {
            "get": {
                "tags": ["Backend"],
                "summary": "Forward a request to the backend",
                "description": "Any method is forwarded with the /api prefix removed, e.g. /api/ciclos to /ciclos.",
                "parameters": [
                    {"name": "path", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Backend response"},
                    "502": {"description": "Backend unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Backend timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
