// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package docs holds the OpenAPI document of the operator and access APIs,
// in the layout swag init emits. Regenerate it from the handler annotations
// with: swag init -g cmd/server/docs.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/actions": {
            "get": {
                "description": "The primary selector is subject, then activity, then processedObject, then processing; the other selectors narrow the result.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "List processing actions",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "objectType:subjectIdKind:subjectId",
                        "name": "subject",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Processing activity ID",
                        "name": "activity",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Processed object ID",
                        "name": "processedObject",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Processing ID",
                        "name": "processing",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "RFC 3339 lower bound on occurredAt",
                        "name": "from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "RFC 3339 upper bound on occurredAt",
                        "name": "to",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "normaal, vertrouwelijk or opgeheven",
                        "name": "confidentiality",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page size",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "Continuation cursor",
                        "name": "cursor",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.ListResponse-models_Record"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            },
            "post": {
                "description": "Validates the action, writes a backup copy and enqueues it. The action is stored asynchronously.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "Register a processing action",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Processing action",
                        "name": "action",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.Payload"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Receipt"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            },
            "patch": {
                "description": "Writes a backup copy and enqueues the patch. Actions registered after the patch are not changed.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "Patch the actions of a processing",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Processing ID",
                        "name": "processingId",
                        "in": "query",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "patch",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.ProcessingPatch"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.PatchReceipt"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        },
        "/actions/{actionId}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "Get a processing action",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Action ID",
                        "name": "actionId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Record"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "Amend a processing action",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Action ID",
                        "name": "actionId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "Write synchronously",
                        "name": "sync",
                        "in": "query"
                    },
                    {
                        "description": "Processing action",
                        "name": "action",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.Payload"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Receipt"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    },
                    "422": {
                        "description": "Unprocessable Entity",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Actions"
                ],
                "summary": "Delete a processing action",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Action ID",
                        "name": "actionId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.DeletedResponse"
                        }
                    }
                }
            }
        },
        "/backups/{actionId}/replay": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Backups"
                ],
                "summary": "Replay an action from its backup",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Action ID",
                        "name": "actionId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Receipt"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        },
        "/dead-letters": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Dead Letters"
                ],
                "summary": "List dead letters",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Maximum entries (default 100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.ListResponse-models_DeadLetter"
                        }
                    }
                }
            }
        },
        "/dead-letters/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Dead Letters"
                ],
                "summary": "Get a dead letter",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DeadLetter"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Dead Letters"
                ],
                "summary": "Purge a dead letter",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        },
        "/dead-letters/{id}/redrive": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Dead Letters"
                ],
                "summary": "Redrive a dead letter",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Message ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.RedriveResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        },
        "/healthz": {
            "get": {
                "description": "Runs each dependency check; any failure reports degraded with 503.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Health"
                ],
                "summary": "Get service health",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/api.HealthResponse"
                        }
                    }
                }
            }
        },
        "/processed-objects": {
            "get": {
                "description": "Served on the access host. Confidential actions are never disclosed.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Inzage"
                ],
                "summary": "List a subject's processed objects",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "objectType:subjectIdKind:subjectId",
                        "name": "subject",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Processing activity ID",
                        "name": "activity",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "RFC 3339 lower bound on occurredAt",
                        "name": "from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "RFC 3339 upper bound on occurredAt",
                        "name": "to",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "nextCursor of a previous response",
                        "name": "cursor",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.ListResponse-models_InzageObject"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        },
        "/processed-objects/{id}": {
            "get": {
                "description": "Served on the access host.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Inzage"
                ],
                "summary": "Get a processed object",
                "security": [
                    {
                        "APIKey": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Processed object ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.InzageObject"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.Problem"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "api.Problem": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "detail": {
                    "type": "string"
                },
                "instance": {
                    "type": "string"
                },
                "requestId": {
                    "type": "string"
                },
                "errors": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.FieldError"
                    }
                },
                "backupKey": {
                    "type": "string"
                }
            }
        },
        "api.DeletedResponse": {
            "type": "object",
            "properties": {
                "actionId": {
                    "type": "string"
                },
                "deleted": {
                    "type": "boolean"
                }
            }
        },
        "api.RedriveResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "redriven": {
                    "type": "boolean"
                },
                "transport": {
                    "type": "string"
                }
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "uptimeSeconds": {
                    "type": "number"
                },
                "checks": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                },
                "queue": {
                    "$ref": "#/definitions/models.QueueStats"
                }
            }
        },
        "api.ListResponse-models_Record": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Record"
                    }
                },
                "nextCursor": {
                    "type": "string"
                }
            }
        },
        "api.ListResponse-models_DeadLetter": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.DeadLetter"
                    }
                },
                "nextCursor": {
                    "type": "string"
                }
            }
        },
        "api.ListResponse-models_InzageObject": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.InzageObject"
                    }
                },
                "nextCursor": {
                    "type": "string"
                }
            }
        },
        "models.FieldError": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "tag": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "models.DataCategory": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string"
                }
            },
            "required": [
                "category"
            ]
        },
        "models.ProcessedObject": {
            "type": "object",
            "properties": {
                "processedObjectId": {
                    "type": "string"
                },
                "objectType": {
                    "type": "string"
                },
                "subjectIdKind": {
                    "type": "string"
                },
                "subjectId": {
                    "type": "string"
                },
                "involvement": {
                    "type": "string"
                },
                "dataCategories": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.DataCategory"
                    }
                }
            },
            "required": [
                "objectType",
                "subjectIdKind",
                "subjectId"
            ]
        },
        "models.Payload": {
            "type": "object",
            "properties": {
                "actionName": {
                    "type": "string"
                },
                "operationName": {
                    "type": "string"
                },
                "processingId": {
                    "type": "string"
                },
                "processingName": {
                    "type": "string"
                },
                "activityId": {
                    "type": "string"
                },
                "activityUrl": {
                    "type": "string"
                },
                "confidentiality": {
                    "type": "string",
                    "enum": [
                        "normaal",
                        "vertrouwelijk",
                        "opgeheven"
                    ]
                },
                "retentionPeriod": {
                    "type": "string",
                    "example": "P10Y"
                },
                "actorOrganization": {
                    "type": "string"
                },
                "actorSystem": {
                    "type": "string"
                },
                "actorUser": {
                    "type": "string"
                },
                "dataSource": {
                    "type": "string"
                },
                "recipientOrganizationKind": {
                    "type": "string"
                },
                "recipientOrganization": {
                    "type": "string"
                },
                "recipientActivityId": {
                    "type": "string"
                },
                "recipientActivityUrl": {
                    "type": "string"
                },
                "recipientProcessingId": {
                    "type": "string"
                },
                "occurredAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "processedObjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.ProcessedObject"
                    }
                }
            },
            "required": [
                "actionName",
                "activityId",
                "confidentiality",
                "occurredAt",
                "processedObjects"
            ]
        },
        "models.IndexKeys": {
            "type": "object",
            "properties": {
                "subjectKeys": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "activityId": {
                    "type": "string"
                },
                "processedObjectIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "processingId": {
                    "type": "string"
                }
            }
        },
        "models.Record": {
            "type": "object",
            "properties": {
                "actionName": {
                    "type": "string"
                },
                "operationName": {
                    "type": "string"
                },
                "processingId": {
                    "type": "string"
                },
                "processingName": {
                    "type": "string"
                },
                "activityId": {
                    "type": "string"
                },
                "activityUrl": {
                    "type": "string"
                },
                "confidentiality": {
                    "type": "string",
                    "enum": [
                        "normaal",
                        "vertrouwelijk",
                        "opgeheven"
                    ]
                },
                "retentionPeriod": {
                    "type": "string",
                    "example": "P10Y"
                },
                "actorOrganization": {
                    "type": "string"
                },
                "actorSystem": {
                    "type": "string"
                },
                "actorUser": {
                    "type": "string"
                },
                "dataSource": {
                    "type": "string"
                },
                "recipientOrganizationKind": {
                    "type": "string"
                },
                "recipientOrganization": {
                    "type": "string"
                },
                "recipientActivityId": {
                    "type": "string"
                },
                "recipientActivityUrl": {
                    "type": "string"
                },
                "recipientProcessingId": {
                    "type": "string"
                },
                "occurredAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "processedObjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.ProcessedObject"
                    }
                },
                "actionId": {
                    "type": "string"
                },
                "registeredAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "expiresAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "indexKeys": {
                    "$ref": "#/definitions/models.IndexKeys"
                }
            }
        },
        "models.Receipt": {
            "type": "object",
            "properties": {
                "actionId": {
                    "type": "string"
                },
                "registeredAt": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.ProcessingPatch": {
            "type": "object",
            "properties": {
                "processingId": {
                    "type": "string"
                },
                "confidentiality": {
                    "type": "string",
                    "enum": [
                        "normaal",
                        "vertrouwelijk",
                        "opgeheven"
                    ]
                },
                "retentionPeriod": {
                    "type": "string",
                    "example": "P10Y"
                }
            }
        },
        "models.PatchReceipt": {
            "type": "object",
            "properties": {
                "patchId": {
                    "type": "string"
                },
                "processingId": {
                    "type": "string"
                },
                "registeredAt": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.InzageAction": {
            "type": "object",
            "properties": {
                "activityId": {
                    "type": "string"
                },
                "activityUrl": {
                    "type": "string"
                },
                "processingName": {
                    "type": "string"
                },
                "actorOrganization": {
                    "type": "string"
                },
                "occurredAt": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.InzageObject": {
            "type": "object",
            "properties": {
                "processedObjectId": {
                    "type": "string"
                },
                "objectType": {
                    "type": "string"
                },
                "subjectIdKind": {
                    "type": "string"
                },
                "involvement": {
                    "type": "string"
                },
                "dataCategories": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.DataCategory"
                    }
                },
                "actions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.InzageAction"
                    }
                }
            }
        },
        "models.DeadLetter": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "topic": {
                    "type": "string"
                },
                "deliveries": {
                    "type": "integer"
                },
                "redrives": {
                    "type": "integer"
                },
                "lastError": {
                    "type": "string"
                },
                "enqueuedAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "deadLetteredAt": {
                    "type": "string",
                    "format": "date-time"
                },
                "metadata": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "models.QueueStats": {
            "type": "object",
            "properties": {
                "topic": {
                    "type": "string"
                },
                "ready": {
                    "type": "integer"
                },
                "inFlight": {
                    "type": "integer"
                },
                "deadLetters": {
                    "type": "integer"
                }
            }
        }
    },
    "securityDefinitions": {
        "APIKey": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    },
    "tags": [
        {
            "description": "Processing actions on the operator host",
            "name": "Actions"
        },
        {
            "description": "Replay of backup copies",
            "name": "Backups"
        },
        {
            "description": "Dead-letter inspection, redrive and purge",
            "name": "Dead Letters"
        },
        {
            "description": "Service health",
            "name": "Health"
        },
        {
            "description": "Data subject access on the access host",
            "name": "Inzage"
        }
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Verwerkingenlog API",
	Description:      "Audit log of processing actions on personal data.\n\n## Hosts\n\nThe operator host accepts, amends, patches, reads and deletes actions and manages the dead-letter partition. The access host serves data subjects the list of processed objects recorded about them. Confidential actions are never disclosed on the access host.\n\n## Admission\n\nEvery route except /healthz, /metrics and /swagger/ needs a key in the X-API-Key header. A missing key is answered with 401, an unknown key or a key of the other host with 403.\n\n## Errors\n\nErrors are RFC 9457 problem documents (application/problem+json).",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
