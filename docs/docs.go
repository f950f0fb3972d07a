// Package docs registers the OpenAPI document served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness and store connectivity",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/api/contacts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "List contacts",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "sport", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/contacts/{notion_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Get a contact by Notion page id",
                "parameters": [
                    {"type": "string", "name": "notion_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/contacts/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Contact counts by sync status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/contacts/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["contacts"],
                "summary": "Export contacts as a spreadsheet",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/full": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Run a full sync",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "A sync is already running"},
                    "502": {"description": "Notion unavailable"}
                }
            }
        },
        "/api/sync/incremental": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Run an incremental sync",
                "parameters": [
                    {"type": "string", "format": "date-time", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid since"},
                    "409": {"description": "A sync is already running"},
                    "502": {"description": "Notion unavailable"}
                }
            }
        },
        "/api/sync/contacts/{notion_id}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync a single contact",
                "parameters": [
                    {"type": "string", "name": "notion_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync status report",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "List sync log entries",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/schedules": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "List sync schedules",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync/schedules/{name}/run": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["schedules"],
                "summary": "Run a scheduled job now",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown job"},
                    "409": {"description": "A sync is already running"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ConfOps Contact Sync API",
	Description:      "Synchronizes the Notion contact database into the local store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
