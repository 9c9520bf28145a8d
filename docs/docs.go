// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package docs registers the Swagger 2.0 document served at /swagger/.
//
// The template follows the @-annotations on the handlers in internal/api and
// the general info in cmd/server/docs.go. Regenerate it after changing them:
//
//	swag init -g cmd/server/docs.go -o docs --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/motortrack/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/audit": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Audit"],
                "summary": "List operator audit events",
                "parameters": [
                    {"type": "string", "description": "Event type, e.g. token.clear", "name": "type", "in": "query"},
                    {"type": "integer", "description": "Device ID", "name": "device_id", "in": "query"},
                    {"type": "string", "description": "Only events at or after (RFC3339)", "name": "since", "in": "query"},
                    {"type": "integer", "description": "1-1000, default 100", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/audit.Event"}}}}
                            ]
                        }
                    },
                    "503": {"description": "Auditing disabled", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.HealthStatus"}}}
                            ]
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.HealthStatus"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/motors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Motors"],
                "summary": "List devices with location status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/models.DeviceWithAge"}}}}
                            ]
                        }
                    }
                }
            }
        },
        "/motors/sync": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Motors"],
                "summary": "Trigger a sync pass",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.SyncRun"}}}
                            ]
                        }
                    },
                    "409": {"description": "A pass is already running", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/motors/{id}/location": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Motors"],
                "summary": "Manually update a device location",
                "parameters": [
                    {"type": "integer", "description": "Device ID", "name": "id", "in": "path", "required": true},
                    {"description": "Coordinates", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/validation.ManualLocationRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.Device"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/motors/{id}/mileage": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Provider"],
                "summary": "Device mileage for a time range",
                "parameters": [
                    {"type": "integer", "description": "Device ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Start (RFC3339)", "name": "from", "in": "query", "required": true},
                    {"type": "string", "description": "End (RFC3339), at most 31 days after from", "name": "to", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/provider.Mileage"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/motors/{id}/sync": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Motors"],
                "summary": "Sync one device",
                "parameters": [
                    {"type": "integer", "description": "Device ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.DeviceResult"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/motors/{id}/vehicle-status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Provider"],
                "summary": "Live vehicle status",
                "parameters": [
                    {"type": "integer", "description": "Device ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/provider.VehicleStatus"}}}
                            ]
                        }
                    }
                }
            }
        },
        "/provider/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Provider"],
                "summary": "List provider devices",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/provider.DeviceInfo"}}}}
                            ]
                        }
                    }
                }
            }
        },
        "/token": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Token"],
                "summary": "Show the masked provider token",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.TokenInfo"}}}
                            ]
                        }
                    }
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Token"],
                "summary": "Clear the provider token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/token/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Token"],
                "summary": "Force a provider token refresh",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/models.APIResponse"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.TokenInfo"}}}
                            ]
                        }
                    },
                    "429": {"description": "Auth budget spent; see Retry-After", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "500": {"description": "Provider credentials not configured", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "audit.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "type": {"type": "string", "enum": ["sync.manual_all", "sync.manual_device", "location.manual_update", "token.refresh", "token.clear"]},
                "outcome": {"type": "string", "enum": ["success", "failure"]},
                "device_id": {"type": "integer"},
                "source_ip": {"type": "string"},
                "user_agent": {"type": "string"},
                "description": {"type": "string"},
                "metadata": {"type": "object"},
                "request_id": {"type": "string"},
                "correlation_id": {"type": "string"}
            }
        },
        "models.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "metadata": {"$ref": "#/definitions/models.Metadata"},
                "error": {"$ref": "#/definitions/models.APIError"}
            }
        },
        "models.Device": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "imei": {"type": "string"},
                "status": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "last_update": {"type": "string"},
                "gps_status": {"type": "string", "enum": ["online", "offline", "no_imei", "error"]},
                "last_known_address": {"type": "string"}
            }
        },
        "models.DeviceResult": {
            "type": "object",
            "properties": {
                "device_id": {"type": "integer"},
                "imei": {"type": "string"},
                "gps_status": {"type": "string", "enum": ["online", "offline", "no_imei", "error"]},
                "reason": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "address": {"type": "string"},
                "cached": {"type": "boolean"},
                "synced_at": {"type": "string"}
            }
        },
        "models.DeviceWithAge": {
            "allOf": [
                {"$ref": "#/definitions/models.Device"},
                {"type": "object", "properties": {"last_update_age": {"type": "integer", "description": "Seconds since last_update"}}}
            ]
        },
        "models.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["healthy", "degraded", "unhealthy"]},
                "token_valid": {"type": "boolean"},
                "api_accessible": {"type": "boolean"},
                "database_connected": {"type": "boolean"},
                "last_sync": {"type": "string"},
                "next_sync_in": {"type": "number"},
                "consecutive_failures": {"type": "integer"},
                "circuit_breaker": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "models.Metadata": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"}
            }
        },
        "models.SyncRun": {
            "type": "object",
            "properties": {
                "success": {"type": "integer"},
                "failed": {"type": "integer"},
                "total": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "skipped": {"type": "boolean"},
                "started_at": {"type": "string"},
                "trigger": {"type": "string"},
                "correlation_id": {"type": "string"}
            }
        },
        "models.TokenInfo": {
            "type": "object",
            "properties": {
                "token": {"type": "string", "description": "Masked; the full value never leaves the process"},
                "acquired_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "valid": {"type": "boolean"}
            }
        },
        "provider.DeviceInfo": {
            "type": "object",
            "properties": {
                "imei": {"type": "string"},
                "deviceName": {"type": "string"},
                "status": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"}
            }
        },
        "provider.Mileage": {
            "type": "object",
            "properties": {
                "imei": {"type": "string"},
                "mileage": {"type": "number"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            }
        },
        "provider.VehicleStatus": {
            "type": "object",
            "properties": {
                "imei": {"type": "string"},
                "status": {"type": "string"},
                "accStatus": {"type": "string"},
                "speed": {"type": "number"},
                "battery": {"type": "number"},
                "gpsSignal": {"type": "number"},
                "gpsTime": {"type": "string"}
            }
        },
        "validation.ManualLocationRequest": {
            "type": "object",
            "required": ["lat", "lng"],
            "properties": {
                "lat": {"type": "number", "minimum": -90, "maximum": 90},
                "lng": {"type": "number", "minimum": -180, "maximum": 180}
            }
        }
    },
    "tags": [
        {"description": "Fleet devices, manual syncs and location overrides", "name": "Motors"},
        {"description": "Provider access token lifecycle", "name": "Token"},
        {"description": "Pass-through queries to the GPS provider", "name": "Provider"},
        {"description": "Service health", "name": "Health"},
        {"description": "Operator audit trail", "name": "Audit"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Motortrack API",
	Description:      "Fleet GPS provider integration: device positions, manual syncs, token management and the operator audit trail.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
