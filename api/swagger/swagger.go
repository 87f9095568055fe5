package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AG Office Console",
        "description": "Session and permission gateway in front of the AG Office API",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Authentication", "description": "Sign-in and sign-out pages"},
        {"name": "Session", "description": "State of the current browsing context"},
        {"name": "Sessions", "description": "Account sessions on other devices"},
        {"name": "Operations", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/signin": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Sign-in form",
                "produces": ["text/html"],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "description": "Location to return to after signing in"}
                ],
                "responses": {
                    "200": {"description": "HTML form"},
                    "303": {"description": "Already signed in"}
                }
            },
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/html"],
                "parameters": [
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true},
                    {"name": "remember_me", "in": "formData", "type": "boolean"},
                    {"name": "from", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "303": {"description": "Signed in, redirected to the requested location"},
                    "400": {"description": "Missing email or password"},
                    "401": {"description": "Form with a generic error message"},
                    "409": {"description": "A sign-in is already in progress"}
                }
            }
        },
        "/signout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign out",
                "responses": {
                    "303": {"description": "Signed out, redirected to the sign-in form"}
                }
            }
        },
        "/api/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/menu": {
            "get": {
                "tags": ["Session"],
                "summary": "Navigation filtered by permissions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Permissions still loading"},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/permissions/reload": {
            "post": {
                "tags": ["Session"],
                "summary": "Re-fetch the permission set",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/identity/reload": {
            "post": {
                "tags": ["Session"],
                "summary": "Re-fetch the signed-in identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions, current first",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionListEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/sessions/{id}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Revoke another device's session",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Revoked"},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "The current session, sign out instead", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Counters snapshot",
                "description": "Requires the system_config:read permission",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Missing permission", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/logout-all": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Sign out everywhere",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LogoutAllInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Incorrect password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LogoutAllInput": {
            "type": "object",
            "required": ["current_password"],
            "properties": {
                "current_password": {"type": "string"}
            }
        },
        "Identity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "MANAGER", "AGENT", "CLIENT"]},
                "is_active": {"type": "boolean"}
            }
        },
        "Session": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["unauthenticated", "authenticating", "permissions_pending", "authenticated"]},
                "identity": {"$ref": "#/definitions/Identity"},
                "permissions": {"type": "array", "items": {"type": "string"}},
                "locale": {"type": "string"},
                "remember_me": {"type": "boolean"}
            }
        },
        "SessionView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "device_info": {"type": "string"},
                "device_kind": {"type": "string", "enum": ["mobile", "desktop"]},
                "ip_address": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "last_used_at": {"type": "string", "format": "date-time"},
                "is_current": {"type": "boolean"},
                "revocable": {"type": "boolean"}
            }
        },
        "SessionEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Session"}
            }
        },
        "SessionListEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionView"}},
                        "total": {"type": "integer"}
                    }
                }
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
