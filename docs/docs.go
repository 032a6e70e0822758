// Package docs holds the OpenAPI document served by gin-swagger. Regenerate
// with `swag init -g cmd/server/main.go -o docs`.
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
        "/contact": {
            "post": {
                "description": "Validates a contact form submission and queues an email to the site owner.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contact"],
                "summary": "Submit contact form",
                "parameters": [
                    {"description": "Contact submission", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ContactRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/services.SubmitContactResult"}},
                    "400": {"description": "Honeypot triggered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/mail": {
            "post": {
                "description": "Alias of /contact with its own rate-limit bucket.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contact"],
                "summary": "Submit contact form (mail alias)",
                "parameters": [
                    {"description": "Contact submission", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ContactRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/services.SubmitContactResult"}},
                    "400": {"description": "Honeypot triggered", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/tasks/start": {
            "post": {
                "description": "Starts a simulated task in the background and reports the outcome to the last known Telegram chat.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tasks"],
                "summary": "Start a task",
                "parameters": [
                    {"type": "string", "description": "Shared secret (when TASKS_API_KEY is set)", "name": "X-API-Key", "in": "header"},
                    {"description": "Task parameters", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.StartTaskRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handlers.TaskStartedResponse"}},
                    "400": {"description": "No chat to notify", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Missing or invalid API key", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/telegram/webhook": {
            "post": {
                "description": "Receives Bot API updates and remembers the chat they came from.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["telegram"],
                "summary": "Telegram webhook",
                "parameters": [
                    {"type": "string", "description": "Webhook secret", "name": "X-Telegram-Bot-Api-Secret-Token", "in": "header"},
                    {"description": "Telegram update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.TelegramUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookResponse"}},
                    "403": {"description": "Invalid webhook secret", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Malformed update", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/telegram/last_chat": {
            "get": {
                "description": "Returns the chat id recorded from the most recent update, or null.",
                "produces": ["application/json"],
                "tags": ["telegram"],
                "summary": "Last chat",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LastChatResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Liveness probe.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ContactRequest": {
            "type": "object",
            "required": ["email", "message", "name"],
            "properties": {
                "name": {"type": "string", "example": "Jane Doe"},
                "email": {"type": "string", "example": "jane@example.com"},
                "message": {"type": "string", "example": "I'd like a quote."},
                "meta": {"type": "object"},
                "attribution": {"type": "object"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "validation_error"},
                "message": {"type": "string", "example": "email format is invalid"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        },
        "handlers.LastChatResponse": {
            "type": "object",
            "properties": {
                "last_chat_id": {"type": "integer", "example": 123456789}
            }
        },
        "handlers.StartTaskRequest": {
            "type": "object",
            "properties": {
                "duration_seconds": {"type": "number", "maximum": 600, "minimum": 0, "example": 5},
                "force_fail": {"type": "boolean", "example": false},
                "modified_files": {"type": "array", "maxItems": 200, "items": {"type": "string"}, "example": ["main.go", "README.md"]},
                "modified_files_count": {"type": "integer", "minimum": 0, "example": 2},
                "repository_name": {"type": "string", "maxLength": 240, "example": "go-notify-backend"},
                "execution_time_seconds": {"type": "number", "maximum": 86400, "minimum": 0, "example": 42.5},
                "start_datetime": {"type": "string", "example": "2025-01-02T15:04:05Z"},
                "end_datetime": {"type": "string", "example": "2025-01-02T15:05:05Z"}
            }
        },
        "handlers.TaskStartedResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "started"},
                "chat_id": {"type": "integer", "example": 123456789},
                "duration_seconds": {"type": "number", "example": 5},
                "force_fail": {"type": "boolean", "example": false},
                "modified_files": {"type": "array", "items": {"type": "string"}},
                "modified_files_count": {"type": "integer"},
                "repository_name": {"type": "string", "example": "go-notify-backend"},
                "execution_time_seconds": {"type": "number"}
            }
        },
        "handlers.WebhookResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean", "example": true},
                "chat_id": {"type": "integer", "example": 123456789}
            }
        },
        "services.SubmitContactResult": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "status": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "services.TelegramChat": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "type": {"type": "string"}
            }
        },
        "services.TelegramMessage": {
            "type": "object",
            "properties": {
                "message_id": {"type": "integer"},
                "chat": {"$ref": "#/definitions/services.TelegramChat"},
                "text": {"type": "string"}
            }
        },
        "services.TelegramCallbackQuery": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "message": {"$ref": "#/definitions/services.TelegramMessage"}
            }
        },
        "services.TelegramUpdate": {
            "type": "object",
            "properties": {
                "update_id": {"type": "integer"},
                "message": {"$ref": "#/definitions/services.TelegramMessage"},
                "edited_message": {"$ref": "#/definitions/services.TelegramMessage"},
                "channel_post": {"$ref": "#/definitions/services.TelegramMessage"},
                "edited_channel_post": {"$ref": "#/definitions/services.TelegramMessage"},
                "callback_query": {"$ref": "#/definitions/services.TelegramCallbackQuery"}
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
	Title:            "go-notify-backend API",
	Description:      "Contact form intake and Telegram task notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
