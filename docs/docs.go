// Package docs holds the generated swagger spec. Regenerate with:
//
//	swag init -g cmd/api/main.go -o docs
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
        "/users": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a new player account",
                "parameters": [
                    {
                        "description": "User creation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/user.CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/rooms": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Create a new room",
                "parameters": [
                    {
                        "description": "Room creation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/room.CreateRoomRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/memberships": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "Join a room",
                "parameters": [
                    {
                        "description": "Join request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/membership.JoinRoomRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/transactions/start-game": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Start a game",
                "parameters": [
                    {
                        "description": "Start game request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ledger.StartGameRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/transactions/transfer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Transfer money to another player",
                "parameters": [
                    {
                        "description": "Transfer request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ledger.TransferRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        },
        "/transactions/{id}/cancel": {
            "patch": {
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Cancel a transaction",
                "parameters": [
                    {"type": "string", "description": "Transaction ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "response.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "object"}
            }
        },
        "user.CreateUserRequest": {
            "type": "object",
            "properties": {"nickname": {"type": "string"}}
        },
        "room.CreateRoomRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "password": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "membership.JoinRoomRequest": {
            "type": "object",
            "properties": {
                "room_id": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ledger.StartGameRequest": {
            "type": "object",
            "properties": {
                "room_id": {"type": "string"},
                "initial_balance": {"type": "string"}
            }
        },
        "ledger.TransferRequest": {
            "type": "object",
            "properties": {
                "to_player_id": {"type": "string"},
                "room_id": {"type": "string"},
                "amount": {"type": "string"},
                "description": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Bankroll API",
	Description:      "Play-money banking for board game nights.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
