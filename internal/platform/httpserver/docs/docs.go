// Package docs holds the generated swagger specification served at /swagger/.
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
        "/api/governance/v1/daos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["daos"],
                "summary": "List DAOs",
                "parameters": [
                    {"type": "string", "name": "owner", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["daos"],
                "summary": "Register a DAO",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/governance/v1/daos/{dao_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["daos"],
                "summary": "Fetch a DAO with its proposal references",
                "parameters": [
                    {"type": "string", "name": "dao_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/governance/v1/proposals": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "Create a proposal",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/governance/v1/proposals/{proposal_id}/settle": {
            "post": {
                "produces": ["application/json"],
                "tags": ["proposals"],
                "summary": "Settle a proposal whose voting window closed",
                "parameters": [
                    {"type": "string", "name": "proposal_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/governance/v1/proposals/{proposal_id}/tally": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Weighted tally for a proposal",
                "parameters": [
                    {"type": "string", "name": "proposal_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/governance/v1/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Cast a vote",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
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
	Title:            "Agora Governance API",
	Description:      "DAO directory, proposal lifecycle, and vote tally endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
