// Package docs registers the OpenAPI document served under /swagger.
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
    "security": [{"BearerAuth": []}],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"], "summary": "Register an account", "security": [],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UserInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}}, "400": {"$ref": "#/responses/Error"}, "403": {"$ref": "#/responses/Error"}, "409": {"$ref": "#/responses/Error"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Exchange credentials for a bearer token", "security": [],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginInput"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResult"}}, "401": {"$ref": "#/responses/Error"}}
            }
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}, "401": {"$ref": "#/responses/Error"}}}
        },
        "/users": {
            "get": {"tags": ["users"], "summary": "List users", "parameters": [{"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["users"], "summary": "Create a user", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/UserInput"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}}, "409": {"$ref": "#/responses/Error"}}}
        },
        "/users/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {"tags": ["users"], "summary": "Get a user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}, "404": {"$ref": "#/responses/Error"}}},
            "put": {"tags": ["users"], "summary": "Update a user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}},
            "delete": {"tags": ["users"], "summary": "Delete an unreferenced user", "responses": {"200": {"$ref": "#/responses/Deleted"}, "404": {"$ref": "#/responses/Error"}, "409": {"$ref": "#/responses/Error"}}}
        },
        "/projects": {
            "get": {"tags": ["projects"], "summary": "List projects", "parameters": [{"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["projects"], "summary": "Create a project", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Project"}}, "400": {"$ref": "#/responses/Error"}}}
        },
        "/projects/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {"tags": ["projects"], "summary": "Get a project", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Project"}}}},
            "put": {"tags": ["projects"], "summary": "Update a project", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Project"}}}},
            "delete": {"tags": ["projects"], "summary": "Delete a project without defects", "responses": {"200": {"$ref": "#/responses/Deleted"}, "409": {"$ref": "#/responses/Error"}}}
        },
        "/defects": {
            "get": {"tags": ["defects"], "summary": "List defects", "parameters": [{"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["defects"], "summary": "File a defect", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Defect"}}}}
        },
        "/defects/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {"tags": ["defects"], "summary": "Get a defect", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Defect"}}}},
            "put": {"tags": ["defects"], "summary": "Update a defect", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Defect"}}}},
            "delete": {"tags": ["defects"], "summary": "Delete a defect with its comments and attachments", "responses": {"200": {"$ref": "#/responses/Deleted"}}}
        },
        "/defects/project/{project_id}": {
            "get": {"tags": ["defects"], "summary": "Defects of a project", "parameters": [{"in": "path", "name": "project_id", "type": "integer", "required": true}, {"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}}
        },
        "/defects/user/{user_id}": {
            "get": {"tags": ["defects"], "summary": "Defects assigned to a user", "parameters": [{"in": "path", "name": "user_id", "type": "integer", "required": true}, {"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}}
        },
        "/comments": {
            "get": {"tags": ["comments"], "summary": "List comments", "parameters": [{"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["comments"], "summary": "Comment on a defect", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Comment"}}}}
        },
        "/comments/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {"tags": ["comments"], "summary": "Get a comment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Comment"}}}},
            "put": {"tags": ["comments"], "summary": "Edit a comment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Comment"}}}},
            "delete": {"tags": ["comments"], "summary": "Delete a comment and its attachments", "responses": {"200": {"$ref": "#/responses/Deleted"}}}
        },
        "/comments/defect/{defect_id}": {
            "get": {"tags": ["comments"], "summary": "Comments on a defect", "parameters": [{"in": "path", "name": "defect_id", "type": "integer", "required": true}, {"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}}
        },
        "/comments/user/{user_id}": {
            "get": {"tags": ["comments"], "summary": "Comments by an author", "parameters": [{"in": "path", "name": "user_id", "type": "integer", "required": true}, {"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}}
        },
        "/attachments": {
            "get": {"tags": ["attachments"], "summary": "List attachments", "parameters": [{"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["attachments"], "summary": "Record an attachment", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Attachment"}}}}
        },
        "/attachments/{id}": {
            "parameters": [{"$ref": "#/parameters/id"}],
            "get": {"tags": ["attachments"], "summary": "Get an attachment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attachment"}}}},
            "put": {"tags": ["attachments"], "summary": "Update an attachment", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Attachment"}}}},
            "delete": {"tags": ["attachments"], "summary": "Delete an attachment", "responses": {"200": {"$ref": "#/responses/Deleted"}}}
        },
        "/attachments/defect/{defect_id}": {
            "get": {"tags": ["attachments"], "summary": "Attachments of a defect", "parameters": [{"in": "path", "name": "defect_id", "type": "integer", "required": true}, {"$ref": "#/parameters/limit"}, {"$ref": "#/parameters/offset"}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "parameters": {
        "id": {"in": "path", "name": "id", "type": "integer", "required": true},
        "limit": {"in": "query", "name": "limit", "type": "integer", "default": 100, "maximum": 1000},
        "offset": {"in": "query", "name": "offset", "type": "integer", "default": 0}
    },
    "responses": {
        "Error": {"description": "Error", "schema": {"type": "object", "properties": {"error": {"type": "string"}}}},
        "Deleted": {"description": "Deleted", "schema": {"type": "object", "properties": {"message": {"type": "string"}, "id": {"type": "integer"}}}}
    },
    "definitions": {
        "UserInput": {"type": "object", "required": ["email", "password", "name", "role"], "properties": {"email": {"type": "string"}, "password": {"type": "string", "minLength": 8}, "name": {"type": "string"}, "role": {"type": "string", "enum": ["admin", "manager", "engineer", "reader"]}}},
        "LoginInput": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "LoginResult": {"type": "object", "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}, "expires_in": {"type": "integer"}, "user": {"$ref": "#/definitions/User"}}},
        "User": {"type": "object", "properties": {"id": {"type": "integer"}, "email": {"type": "string"}, "name": {"type": "string"}, "role": {"type": "string"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "Project": {"type": "object", "properties": {"id": {"type": "integer"}, "name": {"type": "string"}, "description": {"type": "string"}, "address": {"type": "string"}, "start_date": {"type": "string"}, "end_date": {"type": "string"}, "is_active": {"type": "boolean"}, "manager_id": {"type": "integer"}}},
        "Defect": {"type": "object", "properties": {"id": {"type": "integer"}, "title": {"type": "string", "maxLength": 500}, "description": {"type": "string"}, "status": {"type": "string", "enum": ["new", "in_progress", "under_review", "closed", "cancelled"]}, "priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]}, "due_date": {"type": "string"}, "project_id": {"type": "integer"}, "created_by_id": {"type": "integer"}, "assigned_to_id": {"type": "integer"}}},
        "Comment": {"type": "object", "properties": {"id": {"type": "integer"}, "text": {"type": "string"}, "defect_id": {"type": "integer"}, "author_id": {"type": "integer"}}},
        "Attachment": {"type": "object", "properties": {"id": {"type": "integer"}, "filename": {"type": "string"}, "filepath": {"type": "string"}, "content_type": {"type": "string"}, "defect_id": {"type": "integer"}, "comment_id": {"type": "integer"}, "uploaded_at": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "System Control Defects API",
	Description:      "Defect tracking for construction projects: users, projects, defects, comments and attachments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
