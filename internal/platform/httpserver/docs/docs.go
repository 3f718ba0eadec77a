// Package docs holds the OpenAPI document served under /swagger/.
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
        "/v1/families/{family_id}/members/{member_id}/deceased-vote": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Open a deceased vote",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Member id",
                        "name": "member_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.StartDeceasedVoteRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/members/{member_id}/deceased-vote/ballots": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Cast a deceased vote ballot",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Member id",
                        "name": "member_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.CastVoteRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/requests": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Record an escalation request",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.CreateRequestRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Too Many Requests",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/counters": {
            "get": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "List pending counters of a family",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.PendingCountersResponse"
                        }
                    }
                }
            }
        },
        "/v1/families/{family_id}/counters/{counter_id}": {
            "get": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Get counter progress",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Counter id",
                        "name": "counter_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.CounterResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/families/{family_id}/counters/{counter_id}/approve": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Approve a pending request",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Counter id",
                        "name": "counter_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.AdminDecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/counters/{counter_id}/reject": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Reject a pending request",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Counter id",
                        "name": "counter_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.AdminDecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/counters/{counter_id}/acknowledge": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Acknowledge a pending role request",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Counter id",
                        "name": "counter_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.AdminDecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.OutcomeResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/v1/families/{family_id}/roles/{user_id}": {
            "get": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Get a user's family role",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Family id",
                        "name": "family_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "User id",
                        "name": "user_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.RoleResponse"
                        }
                    }
                }
            }
        },
        "/v1/users/{user_id}/notifications": {
            "get": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "List a user's notifications",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User id",
                        "name": "user_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.NotificationsResponse"
                        }
                    }
                }
            }
        },
        "/v1/users/{user_id}/notifications/read": {
            "post": {
                "tags": [
                    "escalation-engine"
                ],
                "summary": "Mark a user's notifications about a counter as read",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "User id",
                        "name": "user_id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.MarkReadRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/http.MarkReadResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "field": {
                    "type": "string"
                },
                "days_remaining": {
                    "type": "integer"
                }
            }
        },
        "http.StartDeceasedVoteRequest": {
            "type": "object",
            "properties": {
                "initiator_id": {
                    "type": "string"
                }
            }
        },
        "http.CastVoteRequest": {
            "type": "object",
            "properties": {
                "voter_id": {
                    "type": "string"
                },
                "vote": {
                    "type": "string",
                    "enum": [
                        "approved",
                        "denied"
                    ]
                }
            }
        },
        "http.CreateRequestRequest": {
            "type": "object",
            "properties": {
                "workflow": {
                    "type": "string",
                    "enum": [
                        "investment_unlock",
                        "asset_unlock",
                        "role_promotion"
                    ]
                },
                "subject_id": {
                    "type": "string"
                },
                "requester_id": {
                    "type": "string"
                }
            }
        },
        "http.AdminDecisionRequest": {
            "type": "object",
            "properties": {
                "admin_id": {
                    "type": "string"
                }
            }
        },
        "http.MarkReadRequest": {
            "type": "object",
            "properties": {
                "counter_id": {
                    "type": "string"
                }
            }
        },
        "http.MarkReadResponse": {
            "type": "object",
            "properties": {
                "marked": {
                    "type": "integer"
                }
            }
        },
        "http.TallyResponse": {
            "type": "object",
            "properties": {
                "approved": {
                    "type": "integer"
                },
                "denied": {
                    "type": "integer"
                },
                "pending": {
                    "type": "integer"
                }
            }
        },
        "http.CounterResponse": {
            "type": "object",
            "properties": {
                "counter_id": {
                    "type": "string"
                },
                "workflow": {
                    "type": "string"
                },
                "subject_kind": {
                    "type": "string"
                },
                "subject_id": {
                    "type": "string"
                },
                "family_id": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                },
                "required": {
                    "type": "integer"
                },
                "tally": {
                    "$ref": "#/definitions/http.TallyResponse"
                },
                "opened_by": {
                    "type": "string"
                },
                "requested_by": {
                    "type": "string"
                },
                "last_action_at": {
                    "type": "string"
                },
                "resolved_at": {
                    "type": "string"
                },
                "resolved_by": {
                    "type": "string"
                }
            }
        },
        "http.OutcomeResponse": {
            "type": "object",
            "properties": {
                "counter": {
                    "$ref": "#/definitions/http.CounterResponse"
                },
                "decision": {
                    "type": "string"
                },
                "replayed": {
                    "type": "boolean"
                }
            }
        },
        "http.PendingCountersResponse": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/http.CounterResponse"
                    }
                }
            }
        },
        "http.RoleResponse": {
            "type": "object",
            "properties": {
                "family_id": {
                    "type": "string"
                },
                "user_id": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            }
        },
        "http.NotificationResponse": {
            "type": "object",
            "properties": {
                "notification_id": {
                    "type": "string"
                },
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "counter_id": {
                    "type": "string"
                },
                "data": {
                    "type": "object",
                    "additionalProperties": true
                },
                "created_at": {
                    "type": "string"
                },
                "read_at": {
                    "type": "string"
                }
            }
        },
        "http.NotificationsResponse": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/http.NotificationResponse"
                    }
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
	Title:            "Hearth escalation API",
	Description:      "Household consensus and escalation workflows.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
