package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Section Allocator API",
        "description": "Admin API for generating and maintaining semester course-section schedules",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduler", "description": "Schedule generation, reports, exports and overrides"},
        {"name": "Ops", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check against Postgres and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is down"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics exposition"}
                }
            }
        },
        "/semesters/{id}/schedule": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate the semester schedule",
                "description": "Runs the FIFO pass, the optional least-chosen pass and validation in one transaction.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateOptions"}}
                ],
                "responses": {
                    "200": {"description": "Committed run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Semester not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Run failed or strict validation rejected it", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Delete every section of the semester",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Sections cleared", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/schedule/async": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Queue a schedule run for the background worker",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateOptions"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Async runs disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/schedule/report": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Instructor load and conflict report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/schedule/export": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Download the semester schedule",
                "produces": ["text/plain", "text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["table", "grid", "csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "Rendered schedule"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}/instructor": {
            "patch": {
                "tags": ["Scheduler"],
                "summary": "Reassign a section to another instructor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverrideAssignment"}}
                ],
                "responses": {
                    "200": {"description": "Reassigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Rejected by conflict check or unknown entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateOptions": {
            "type": "object",
            "properties": {
                "clearExisting": {"type": "boolean", "default": false},
                "enableLeastChosen": {"type": "boolean", "default": true},
                "strictMode": {"type": "boolean", "default": false}
            }
        },
        "OverrideAssignment": {
            "type": "object",
            "required": ["instructorId"],
            "properties": {
                "instructorId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
