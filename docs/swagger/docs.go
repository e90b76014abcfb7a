// Package swagger registers the OpenAPI document of the inspection API with
// swag, in the layout swag init produces. Keep it in step with the
// annotations in feature/inspect/handler.go.
package swagger

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
        "/health": {
            "get": {
                "description": "Reports the group and per-item state. The status is 503 until every item has loaded.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "inspect"
                ],
                "summary": "Group health",
                "responses": {
                    "200": {
                        "description": "Loaded",
                        "schema": {
                            "$ref": "#/definitions/inspect.Health"
                        }
                    },
                    "503": {
                        "description": "Not loaded",
                        "schema": {
                            "$ref": "#/definitions/inspect.Health"
                        }
                    }
                }
            }
        },
        "/values": {
            "get": {
                "description": "Returns every item value keyed by item name, in group order.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "inspect"
                ],
                "summary": "All item values",
                "responses": {
                    "200": {
                        "description": "Values by item name",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Encoding failure",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/values/{name}": {
            "get": {
                "description": "Returns one item, its state and its value.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "inspect"
                ],
                "summary": "One item value",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Item name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/inspect.ItemValue"
                        }
                    },
                    "404": {
                        "description": "Unknown item",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "inspect.Health": {
            "type": "object",
            "properties": {
                "inited": {
                    "type": "boolean"
                },
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/inspect.ItemState"
                    }
                },
                "loaded": {
                    "type": "boolean"
                }
            }
        },
        "inspect.ItemState": {
            "type": "object",
            "properties": {
                "inited": {
                    "type": "boolean"
                },
                "kind": {
                    "type": "string"
                },
                "loaded": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "publication": {
                    "type": "string"
                },
                "subscribed": {
                    "type": "boolean"
                }
            }
        },
        "inspect.ItemValue": {
            "type": "object",
            "properties": {
                "inited": {
                    "type": "boolean"
                },
                "kind": {
                    "type": "string"
                },
                "loaded": {
                    "type": "boolean"
                },
                "name": {
                    "type": "string"
                },
                "publication": {
                    "type": "string"
                },
                "subscribed": {
                    "type": "boolean"
                },
                "value": {}
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
	Title:            "livesync inspection API",
	Description:      "Read-only view of the live replicas of a running group.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
