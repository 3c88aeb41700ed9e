// Package docs registers the API description served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"summary": "Create an account and sign in", "responses": {"201": {"description": "token"}, "409": {"description": "already registered"}}}},
        "/auth/login": {"post": {"summary": "Sign in", "responses": {"200": {"description": "token"}, "401": {"description": "wrong password"}, "404": {"description": "account not found"}}}},
        "/auth/guest": {"post": {"summary": "Open an in-memory guest workspace", "responses": {"201": {"description": "token"}}}},
        "/auth/logout": {"post": {"summary": "Revoke the token", "security": [{"Bearer": []}], "responses": {"204": {"description": "revoked"}}}},
        "/preferences": {
            "get": {"summary": "Preference tags", "security": [{"Bearer": []}], "responses": {"200": {"description": "tags"}}},
            "put": {"summary": "Overwrite preference tags", "security": [{"Bearer": []}], "responses": {"200": {"description": "tags"}}}
        },
        "/profile": {
            "get": {"summary": "Traveler profile", "security": [{"Bearer": []}], "responses": {"200": {"description": "profile"}}},
            "put": {"summary": "Set group size and travel styles", "security": [{"Bearer": []}], "responses": {"200": {"description": "profile"}}}
        },
        "/sessions": {
            "get": {"summary": "List sessions, newest first", "security": [{"Bearer": []}], "responses": {"200": {"description": "sessions"}}},
            "post": {"summary": "Start a session", "security": [{"Bearer": []}], "responses": {"201": {"description": "session"}}}
        },
        "/sessions/{id}": {
            "get": {"summary": "Session with messages", "security": [{"Bearer": []}], "responses": {"200": {"description": "session"}, "404": {"description": "session not found"}}},
            "delete": {"summary": "Delete a session", "security": [{"Bearer": []}], "responses": {"204": {"description": "deleted"}}}
        },
        "/sessions/{id}/messages": {"post": {"summary": "Run a turn (JSON, or SSE with Accept: text/event-stream)", "security": [{"Bearer": []}], "responses": {"200": {"description": "turn result"}, "502": {"description": "model failure"}}}},
        "/sessions/{id}/resume": {"post": {"summary": "Resume a turn suspended after a map round", "security": [{"Bearer": []}], "responses": {"200": {"description": "turn result"}}}},
        "/sessions/{id}/itinerary.docx": {"get": {"summary": "Itinerary as Word document", "security": [{"Bearer": []}], "responses": {"200": {"description": "docx"}}}},
        "/sessions/{id}/itinerary.txt": {"get": {"summary": "Itinerary as plain text", "security": [{"Bearer": []}], "responses": {"200": {"description": "text"}}}},
        "/sessions/{id}/itinerary.html": {"get": {"summary": "Itinerary as HTML", "security": [{"Bearer": []}], "responses": {"200": {"description": "html"}}}},
        "/sessions/{id}/map": {"get": {"summary": "Rendered route map", "security": [{"Bearer": []}], "responses": {"200": {"description": "html"}}}},
        "/sessions/{id}/traffic": {"get": {"summary": "Per-leg travel times", "security": [{"Bearer": []}], "responses": {"200": {"description": "traffic"}}}},
        "/ws": {"get": {"summary": "Websocket turn stream", "responses": {"101": {"description": "upgraded"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trip Agent API",
	Description:      "Conversational trip planning over a tool-calling agent.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
