// Package docs registers the OpenAPI description served under /swagger.
// Regenerate the paths section with `swag init -g cmd/server/main.go`.
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
        "/api/v1/scan": {
            "get": {
                "tags": ["play"],
                "summary": "Resolve a scanned QR code",
                "parameters": [
                    {"type": "string", "name": "token", "in": "query", "required": true},
                    {"type": "string", "name": "session", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/register": {
            "post": {
                "tags": ["play"],
                "summary": "Register a player for a game",
                "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/answer": {
            "post": {
                "tags": ["play"],
                "summary": "Answer a checkpoint question",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/v1/progress": {
            "get": {
                "tags": ["play"],
                "summary": "Player progress in a game",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/complete": {
            "post": {
                "tags": ["play"],
                "summary": "Claim the completion code",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/admin/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login as admin",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/admin/redemptions/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["redemptions"],
                "summary": "Look up a completion code",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/admin/redemptions/redeem": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["redemptions"],
                "summary": "Hand out the reward",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Enter \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "QR Hunt API",
	Description:      "Scavenger hunt with QR checkpoints, completion codes and an admin console",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
