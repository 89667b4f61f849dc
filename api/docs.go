// Package api holds the OpenAPI description served at /docs.
//
// The handler annotations in internal/controllers are the source for
// `swag init`, which regenerates this file with full schemas.
package api

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
        "/": {
            "get": {"tags": ["General"], "summary": "API root", "responses": {"200": {"description": "OK"}}},
            "options": {"tags": ["General"], "summary": "Allowed HTTP verbs", "responses": {"204": {"description": "No Content"}}}
        },
        "/healthz": {
            "get": {"tags": ["General"], "summary": "Get health", "responses": {"204": {"description": "No Content"}, "500": {"description": "Internal Server Error"}}}
        },
        "/version": {
            "get": {"tags": ["General"], "summary": "API version", "responses": {"200": {"description": "OK"}}}
        },
        "/v1": {
            "get": {"tags": ["v1"], "summary": "v1 API", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/analytics/spending": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Spending analytics",
                "parameters": [
                    {"type": "string", "name": "owner", "in": "query", "required": true},
                    {"type": "string", "name": "period", "in": "query", "enum": ["weekly", "monthly", "yearly"]},
                    {"type": "string", "name": "fromDate", "in": "query"},
                    {"type": "string", "name": "untilDate", "in": "query"},
                    {"type": "string", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/v1/analytics/spending/comparison": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Spending comparison",
                "parameters": [
                    {"type": "string", "name": "owner", "in": "query", "required": true},
                    {"type": "string", "name": "period", "in": "query", "enum": ["weekly", "monthly", "yearly"]},
                    {"type": "string", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/v1/analytics/budgets": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Budget analysis",
                "parameters": [
                    {"type": "string", "name": "owner", "in": "query", "required": true},
                    {"type": "string", "name": "at", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/v1/budgets": {
            "get": {"tags": ["Budgets"], "summary": "List budgets", "parameters": [{"type": "string", "name": "owner", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["Budgets"], "summary": "Create budgets", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/v1/budgets/{id}": {
            "get": {"tags": ["Budgets"], "summary": "Get budget", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["Budgets"], "summary": "Update budget", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Budgets"], "summary": "Delete budget", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/v1/budget-categories": {
            "get": {"tags": ["Budgets"], "summary": "Suggested budget categories", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/category-rules": {
            "get": {"tags": ["Category Rules"], "summary": "List category rules", "parameters": [{"type": "string", "name": "owner", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["Category Rules"], "summary": "Create category rules", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/v1/category-rules/{id}": {
            "get": {"tags": ["Category Rules"], "summary": "Get category rule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["Category Rules"], "summary": "Update category rule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Category Rules"], "summary": "Delete category rule", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/v1/items": {
            "get": {"tags": ["Items"], "summary": "List items", "parameters": [{"type": "string", "name": "owner", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["Items"], "summary": "Link items", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}}
        },
        "/v1/items/{id}": {
            "get": {"tags": ["Items"], "summary": "Get item", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Items"], "summary": "Delete item", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/v1/items/{id}/sync": {
            "post": {"tags": ["Items"], "summary": "Sync item", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}}}
        },
        "/v1/items/{id}/accounts": {
            "get": {"tags": ["Items"], "summary": "Account balances", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}}}
        },
        "/v1/sync": {
            "post": {"tags": ["Items"], "summary": "Sync all items of an owner", "parameters": [{"type": "string", "name": "owner", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/v1/transactions": {
            "get": {"tags": ["Transactions"], "summary": "List transactions", "parameters": [{"type": "string", "name": "owner", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["Transactions"], "summary": "Create transactions", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/v1/transactions/{id}": {
            "get": {"tags": ["Transactions"], "summary": "Get transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Transactions"], "summary": "Delete transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "",
	Description:      "",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
