package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Tracker API",
        "description": "Track attended and missed classes per subject against a 75% target",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Subjects", "description": "Subject attendance counters"},
        {"name": "Reports", "description": "CSV and PDF attendance exports"}
    ],
    "paths": {
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects with percentage and recommendation",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Add a subject",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubjectInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid name or counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{index}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject by position",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "index", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Replace name and counts of a subject",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "index", "type": "integer", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/SubjectInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid name or counts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete a subject",
                "parameters": [
                    {"in": "path", "name": "index", "type": "integer", "required": true},
                    {"in": "query", "name": "confirm", "type": "boolean", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Confirmation missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{index}/attend": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Record an attended class",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "index", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{index}/miss": {
            "post": {
                "tags": ["Subjects"],
                "summary": "Record a missed class",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "index", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Index out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subject-ids/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject by id",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/attendance": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export attendance report",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": false, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "token", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Link invalid or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubjectInput": {
            "type": "object",
            "description": "Counts are free text: send them as JSON strings. Each must parse as a whole number >= 0; total = attended + missed. JSON numbers are rejected as an invalid payload.",
            "required": ["name", "attended", "missed"],
            "properties": {
                "name": {"type": "string", "description": "Non-blank after trimming"},
                "attended": {"type": "string", "pattern": "^\\s*\\+?[0-9]+\\s*$", "description": "Whole number >= 0 as a string", "example": "18"},
                "missed": {"type": "string", "pattern": "^\\s*\\+?[0-9]+\\s*$", "description": "Whole number >= 0 as a string", "example": "2"}
            }
        },
        "SubjectView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "attended": {"type": "integer"},
                "total": {"type": "integer"},
                "index": {"type": "integer"},
                "percentage": {"type": "number"},
                "status": {"type": "string"},
                "color": {"type": "string", "enum": ["ok", "low"]}
            }
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
