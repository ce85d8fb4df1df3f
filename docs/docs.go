// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g main.go
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
        "/summarize": {
            "get": {
                "produces": ["application/json"],
                "tags": ["summary"],
                "summary": "Summary endpoint status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            },
            "post": {
                "description": "Fetches the transcript of the linked video and returns an AI-generated summary.\nVideos without captions return a notice with hasTranscript=false and are not charged.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["summary"],
                "summary": "Summarize a YouTube video",
                "parameters": [
                    {"description": "Video link", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SummaryRequest"}},
                    {"type": "string", "description": "Bearer access token (required when credits are enabled)", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SummaryResult"}},
                    "400": {"description": "Missing or invalid URL", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized or insufficient credits", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited or AI quota exceeded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Summary generation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/check-transcript": {
            "get": {
                "description": "Reports whether captions exist for the linked video without generating a summary.",
                "produces": ["application/json"],
                "tags": ["transcript"],
                "summary": "Check transcript availability",
                "parameters": [
                    {"type": "string", "description": "YouTube video URL", "name": "url", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TranscriptCheck"}},
                    "400": {"description": "Missing or invalid URL", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Transcript provider error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transcript"],
                "summary": "Check transcript availability",
                "parameters": [
                    {"description": "Video link", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SummaryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TranscriptCheck"}},
                    "400": {"description": "Missing or invalid URL", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Transcript provider error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "description": "Returns the new session, or a ConfirmationResponse when the address must be confirmed first.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SignupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ValidationErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ValidationErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user and credit balance",
                "parameters": [
                    {"type": "string", "description": "Bearer access token", "name": "Authorization", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MeResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Revoke the current session",
                "parameters": [
                    {"type": "string", "description": "Bearer access token", "name": "Authorization", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handlers.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "endpoints": {"type": "object", "additionalProperties": {"type": "string"}},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handlers.SignupRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "fullName": {"type": "string", "maxLength": 200},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.SessionResponse": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/models.Session"},
                "user": {"$ref": "#/definitions/models.User"}
            }
        },
        "handlers.MeResponse": {
            "type": "object",
            "properties": {
                "credits": {"type": "integer"},
                "user": {"type": "object", "additionalProperties": true}
            }
        },
        "handlers.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "models.SummaryRequest": {
            "type": "object",
            "properties": {
                "url": {"type": "string"}
            }
        },
        "models.SummaryResult": {
            "type": "object",
            "properties": {
                "hasTranscript": {"type": "boolean"},
                "originalUrl": {"type": "string"},
                "remainingCredits": {"type": "integer"},
                "summary": {"type": "string"},
                "title": {"type": "string"},
                "videoId": {"type": "string"}
            }
        },
        "models.TranscriptCheck": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "transcriptAvailable": {"type": "boolean"},
                "url": {"type": "string"},
                "videoId": {"type": "string"}
            }
        },
        "models.Session": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_at": {"type": "integer"},
                "expires_in": {"type": "integer"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "user_metadata": {"type": "object", "additionalProperties": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "YouTube Summary API",
	Description:      "Summarizes YouTube videos from their transcripts, gated by per-account credits.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
