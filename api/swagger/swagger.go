package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Open edX Sample Plugin",
        "description": "Host routes and the sample plugin's course archive status API",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "JWT": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "CourseArchiveStatus", "description": "Per-user course archive flags"},
        {"name": "Courses", "description": "Course about links and catalog publishing"},
        {"name": "MFEConfig", "description": "Micro-frontend plugin slot configuration"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/sample-plugin/api/v1/course-archive-status/": {
            "get": {
                "tags": ["CourseArchiveStatus"],
                "summary": "List course archive statuses",
                "security": [{"JWT": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "is_archived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not authenticated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Create a course archive status",
                "security": [{"JWT": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseArchiveStatusRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sample-plugin/api/v1/course-archive-status/{id}/": {
            "parameters": [
                {"name": "id", "in": "path", "required": true, "type": "integer"}
            ],
            "get": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Get a course archive status",
                "security": [{"JWT": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Replace a course archive status",
                "security": [{"JWT": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseArchiveStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Update fields of a course archive status",
                "security": [{"JWT": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseArchiveStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Delete a course archive status",
                "security": [{"JWT": []}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sample-plugin/api/v1/course-archive-status/export": {
            "get": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Export course archive statuses",
                "security": [{"JWT": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "is_archived", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sample-plugin/api/v1/course-archive-status/purge": {
            "post": {
                "tags": ["CourseArchiveStatus"],
                "summary": "Purge archive statuses past the retention window",
                "security": [{"JWT": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Staff only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{course_id}/about-url": {
            "get": {
                "tags": ["Courses"],
                "summary": "Resolve a course about page URL",
                "parameters": [
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "org", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid course key", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Pipeline halted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{course_id}/catalog-info": {
            "post": {
                "tags": ["Courses"],
                "summary": "Publish course catalog information",
                "security": [{"JWT": []}],
                "parameters": [
                    {"name": "course_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseCatalogRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not staff", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/mfe_config/v1/plugin-slots": {
            "get": {
                "tags": ["MFEConfig"],
                "summary": "Plugin slot configuration for a micro-frontend",
                "parameters": [
                    {"name": "mfe", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CourseArchiveStatusRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string", "example": "course-v1:edX+DemoX+Demo_Course"},
                "user": {"type": "integer"},
                "is_archived": {"type": "boolean"}
            }
        },
        "CourseArchiveStatus": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "readOnly": true},
                "course_id": {"type": "string"},
                "user": {"type": "integer"},
                "is_archived": {"type": "boolean"},
                "archive_date": {"type": "string", "format": "date-time", "readOnly": true},
                "created_at": {"type": "string", "format": "date-time", "readOnly": true},
                "updated_at": {"type": "string", "format": "date-time", "readOnly": true}
            }
        },
        "CourseCatalogRequest": {
            "type": "object",
            "required": ["name", "start"],
            "properties": {
                "name": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "enrollment_start": {"type": "string", "format": "date-time"},
                "enrollment_end": {"type": "string", "format": "date-time"},
                "pacing": {"type": "string", "enum": ["instructor", "self"]},
                "hidden": {"type": "boolean"},
                "invitation_only": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
