// Package docs holds the OpenAPI description served under /swagger.
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
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/events": {
            "get": {"tags": ["events"], "summary": "List events", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["events"], "summary": "Create an event", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}, "403": {"description": "Organizer rights required"}}}
        },
        "/events/{eventID}/participants": {
            "post": {"tags": ["events"], "summary": "Register a participant", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Already registered"}}}
        },
        "/events/{eventID}/partition": {
            "post": {"tags": ["fixtures"], "summary": "Partition the roster into category groups", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/events/{eventID}/elimination": {
            "post": {"tags": ["fixtures"], "summary": "Build a knockout group from finished groups", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Groups not finished"}}}
        },
        "/events/{eventID}/schedule": {
            "get": {"tags": ["schedule"], "summary": "Placed matches by time and court", "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["schedule"], "summary": "Assign courts and start times", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Outcome with unscheduled matches"}}}
        },
        "/events/{eventID}/schedule.xlsx": {
            "get": {"tags": ["schedule"], "summary": "Download the schedule workbook", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Workbook"}}}
        },
        "/events/{eventID}/referees/auto-assign": {
            "post": {"tags": ["matches"], "summary": "Give every scheduled match without a referee the least loaded free referee", "security": [{"BearerAuth": []}], "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "Outcome with matches left without a referee"}, "409": {"description": "No referee of the pool is free"}}}
        },
        "/groups/{groupID}/fixture": {
            "post": {"tags": ["fixtures"], "summary": "Generate the fixture of a group", "security": [{"BearerAuth": []}], "parameters": [{"name": "groupID", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Fixture already generated"}}}
        },
        "/groups/{groupID}/standings": {
            "get": {"tags": ["standings"], "summary": "Ranked group table", "parameters": [{"name": "groupID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/groups/{groupID}/swiss/rounds": {
            "post": {"tags": ["swiss"], "summary": "Pair the next Swiss round", "security": [{"BearerAuth": []}], "parameters": [{"name": "groupID", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Round still open"}}}
        },
        "/matches/{matchID}/result": {
            "post": {"tags": ["matches"], "summary": "Submit or propose a result", "security": [{"BearerAuth": []}], "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid score"}}}
        },
        "/matches/{matchID}/result/confirm": {
            "post": {"tags": ["matches"], "summary": "Confirm a proposed result", "security": [{"BearerAuth": []}], "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/matches/{matchID}/correction": {
            "post": {"tags": ["matches"], "summary": "Correct a completed score", "security": [{"BearerAuth": []}], "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "A later match already started"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Tournament Scheduler API",
	Description:      "Fixtures, court scheduling and bracket progression for multi-format tournaments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
