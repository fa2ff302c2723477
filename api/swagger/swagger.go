package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyStack API",
        "description": "Student resource sharing: browse, contribute and moderate PDF study materials",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Catalog", "description": "Public browsing and contribution"},
        {"name": "Moderation", "description": "Approval queue for submitted resources"},
        {"name": "Authentication", "description": "Moderator sessions"}
    ],
    "paths": {
        "/resources/{type}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List approved resources of one category, newest first",
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string", "enum": ["pyqs", "notes", "assignments", "solutions"]},
                    {"name": "degree", "in": "query", "type": "string"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown resource type"}
                }
            }
        },
        "/resources/{type}/subjects": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Distinct subjects of one category, sorted ascending",
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/resources/{type}/live": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Server-sent event stream of full replacement snapshots",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/resources": {
            "post": {
                "tags": ["Catalog"],
                "summary": "Submit a PDF resource for moderation",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "degree", "in": "formData", "required": true, "type": "string"},
                    {"name": "branch", "in": "formData", "required": true, "type": "string"},
                    {"name": "semester", "in": "formData", "required": true, "type": "integer"},
                    {"name": "subject", "in": "formData", "required": true, "type": "string"},
                    {"name": "resourceType", "in": "formData", "required": true, "type": "string"},
                    {"name": "submittedByName", "in": "formData", "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"},
                    "503": {"description": "Backing store unavailable"}
                }
            }
        },
        "/downloads/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Download a stored PDF with a signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/moderation/resources": {
            "get": {
                "tags": ["Moderation"],
                "summary": "List resources awaiting a decision",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/moderation/resources/{id}/approve": {
            "post": {
                "tags": ["Moderation"],
                "summary": "Approve a resource",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/moderation/resources/{id}/reject": {
            "post": {
                "tags": ["Moderation"],
                "summary": "Reject a resource back to pending",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/moderation/resources/{id}/download-url": {
            "get": {
                "tags": ["Moderation"],
                "summary": "Generate a signed download URL for review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/moderation/export/{type}": {
            "get": {
                "tags": ["Moderation"],
                "summary": "Export the approved catalog as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unknown format"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate moderator",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
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
