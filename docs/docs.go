// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/resources": {
            "get": {
                "tags": ["Publications"],
                "summary": "List publications",
                "parameters": [
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "string", "name": "fields", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Page of publications"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "tags": ["Publications"],
                "summary": "Create publication",
                "responses": {
                    "201": {"description": "Created publication"},
                    "400": {"description": "Invalid request"},
                    "502": {"description": "Image upload failed"}
                }
            }
        },
        "/resources/{id}": {
            "get": {
                "tags": ["Publications"],
                "summary": "Get publication by ID",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Publication"}, "404": {"description": "Publication not found"}}
            }
        },
        "/resources/user/{userId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Publications"],
                "summary": "List publications of a user",
                "parameters": [{"type": "integer", "name": "userId", "in": "path", "required": true}],
                "responses": {"200": {"description": "Page of publications"}}
            }
        },
        "/resources/modify/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "tags": ["Publications"],
                "summary": "Modify publication",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Updated publication"}, "403": {"description": "Not the owner"}}
            }
        },
        "/resources/delete/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Publications"],
                "summary": "Delete publication",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "403": {"description": "Not the owner"}}
            }
        },
        "/resources/fav": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Favorites"],
                "summary": "List favorites",
                "responses": {"200": {"description": "Page of publications"}}
            }
        },
        "/resources/fav/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Favorites"],
                "summary": "Toggle favorite",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Updated favorites"}, "404": {"description": "Publication not found"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Datahub API",
	Description:      "Field-notes publications with image uploads and favorites.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
