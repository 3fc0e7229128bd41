// Package docs registers the OpenAPI description served at /swagger/*any.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a user and issue a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/AuthResponse"}}, "409": {"description": "Username or email taken"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["Users"],
                "summary": "Log in with username and password",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResponse"}}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/users": {
            "get": {"tags": ["Users"], "security": [{"BearerAuth": []}], "summary": "List users", "responses": {"200": {"description": "OK"}}}
        },
        "/tasks": {
            "get": {"tags": ["Tasks"], "security": [{"BearerAuth": []}], "summary": "Snapshot of all tasks", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Tasks"],
                "security": [{"BearerAuth": []}],
                "summary": "Create a task at version 1",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTaskRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}}, "400": {"description": "Validation failed or duplicate title"}, "404": {"description": "Assignee not found"}}
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["Tasks"], "security": [{"BearerAuth": []}], "summary": "Get a task",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Tasks"], "security": [{"BearerAuth": []}], "summary": "Update a task against a baseline version",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTaskRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}}, "409": {"description": "Baseline is stale; body carries yourSubmission and currentServerState"}}
            },
            "delete": {
                "tags": ["Tasks"], "security": [{"BearerAuth": []}], "summary": "Delete a task",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/tasks/{id}/smart-assign": {
            "post": {
                "tags": ["Tasks"], "security": [{"BearerAuth": []}], "summary": "Assign to the least-loaded other user",
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}}, "422": {"description": "No eligible users"}}
            }
        },
        "/logs/recent": {
            "get": {"tags": ["Activity"], "security": [{"BearerAuth": []}], "summary": "Newest audit entries", "responses": {"200": {"description": "OK"}}}
        },
        "/events": {
            "get": {"tags": ["Activity"], "security": [{"BearerAuth": []}], "summary": "Server-sent event stream of committed changes", "produces": ["text/event-stream"], "responses": {"200": {"description": "Stream"}}}
        }
    },
    "definitions": {
        "RegisterRequest": {"type": "object", "required": ["username", "email", "password"], "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "LoginRequest": {"type": "object", "required": ["username", "password"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "AuthResponse": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/User"}}},
        "User": {"type": "object", "properties": {"id": {"type": "string"}, "username": {"type": "string"}, "email": {"type": "string"}}},
        "Assignee": {"type": "object", "properties": {"id": {"type": "string"}, "username": {"type": "string"}}},
        "CreateTaskRequest": {"type": "object", "required": ["title"], "properties": {
            "title": {"type": "string"}, "description": {"type": "string"},
            "priority": {"type": "string", "enum": ["Low", "Medium", "High"]},
            "status": {"type": "string", "enum": ["Todo", "In Progress", "Done"]},
            "assignedTo": {"$ref": "#/definitions/Assignee"}
        }},
        "UpdateTaskRequest": {"type": "object", "properties": {
            "title": {"type": "string"}, "description": {"type": "string"},
            "priority": {"type": "string", "enum": ["Low", "Medium", "High"]},
            "status": {"type": "string", "enum": ["Todo", "In Progress", "Done"]},
            "assignedTo": {"$ref": "#/definitions/Assignee"},
            "baselineVersion": {"type": "integer"},
            "force": {"type": "boolean"}
        }},
        "Task": {"type": "object", "properties": {
            "id": {"type": "string"}, "title": {"type": "string"}, "description": {"type": "string"},
            "priority": {"type": "string"}, "status": {"type": "string"},
            "assignedTo": {"$ref": "#/definitions/User"},
            "createdBy": {"type": "string"}, "version": {"type": "integer"},
            "createdAt": {"type": "string"}, "updatedAt": {"type": "string"}
        }}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Task Board API",
	Description:      "Collaborative task board with optimistic concurrency, smart assignment and live updates",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
