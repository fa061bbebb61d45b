package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "TaskMate API Documentation",
        "title": "TaskMate API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http"],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/api/v1/users/me": {
            "get": {
                "tags": ["Users"],
                "summary": "Get my profile",
                "description": "Returns the authenticated user with earned achievements",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "User profile"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List my tasks",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["pending", "completed", "verified"]},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Task list"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "task",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "group_id": {"type": "string", "format": "uuid"},
                                "title": {"type": "string", "example": "Morning run"},
                                "description": {"type": "string"},
                                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                                "effort": {"type": "integer", "minimum": 1, "maximum": 5},
                                "due_date": {"type": "string", "format": "date-time"}
                            }
                        }
                    }
                ],
                "responses": {
                    "201": {"description": "Task created"},
                    "400": {"description": "Validation error"},
                    "403": {"description": "Not a group member"}
                }
            }
        },
        "/api/v1/tasks/{id}/complete": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Complete a task and earn coins",
                "description": "Marks a pending task completed, computes the reward from priority and effort, and credits the owner's balances",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
                ],
                "responses": {
                    "200": {"description": "Task with coins earned"},
                    "403": {"description": "Not the task owner"},
                    "409": {"description": "Task already completed"}
                }
            }
        },
        "/api/v1/tasks/{id}/verify": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Verify a completed task",
                "description": "A fellow group member confirms a completed task; verification has no coin effect",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
                ],
                "responses": {
                    "200": {"description": "Verified task"},
                    "409": {"description": "Task not completed or own task"}
                }
            }
        },
        "/api/v1/groups": {
            "post": {
                "tags": ["Groups"],
                "summary": "Create a group",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "group",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "name": {"type": "string", "example": "Study buddies"},
                                "description": {"type": "string"},
                                "reset_frequency": {"type": "string", "enum": ["weekly", "biweekly", "monthly"]}
                            }
                        }
                    }
                ],
                "responses": {
                    "201": {"description": "Group created with invite code"}
                }
            }
        },
        "/api/v1/groups/join": {
            "post": {
                "tags": ["Groups"],
                "summary": "Join a group by invite code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {
                        "in": "body",
                        "name": "invite",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "invite_code": {"type": "string", "example": "A1B2C3D4"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "Joined group"},
                    "400": {"description": "Invalid invite code"},
                    "409": {"description": "Already a member"}
                }
            }
        },
        "/api/v1/groups/{id}/settings": {
            "put": {
                "tags": ["Groups"],
                "summary": "Update group settings (admin only)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true},
                    {
                        "in": "body",
                        "name": "settings",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "reset_frequency": {"type": "string", "enum": ["weekly", "biweekly", "monthly"]},
                                "coin_multiplier": {"type": "integer", "minimum": 1, "maximum": 5}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "Updated group"},
                    "403": {"description": "Not the group admin"}
                }
            }
        },
        "/api/v1/groups/{id}/leaderboard": {
            "get": {
                "tags": ["Leaderboards"],
                "summary": "Group leaderboard",
                "description": "Weekly and lifetime rankings plus member completion stats for the current week",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "format": "uuid", "required": true}
                ],
                "responses": {
                    "200": {"description": "Leaderboard projection"},
                    "403": {"description": "Not a group member"}
                }
            }
        },
        "/api/v1/leaderboard/global": {
            "get": {
                "tags": ["Leaderboards"],
                "summary": "Global leaderboard",
                "description": "Top 50 users by lifetime coins with derived points",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Ranked entries"}
                }
            }
        },
        "/api/v1/achievements": {
            "get": {
                "tags": ["Achievements"],
                "summary": "List my earned badges",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Earned achievements"}
                }
            }
        },
        "/internal/sweeps/penalties": {
            "post": {
                "tags": ["Sweeps"],
                "summary": "Run the overdue penalty sweep",
                "description": "Guarded by the X-Sweep-Secret header; intended for external schedulers",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Sweep result"},
                    "401": {"description": "Invalid sweep secret"}
                }
            }
        },
        "/internal/sweeps/resets": {
            "post": {
                "tags": ["Sweeps"],
                "summary": "Run the group reset sweep",
                "description": "Guarded by the X-Sweep-Secret header; intended for external schedulers",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Sweep result"},
                    "401": {"description": "Invalid sweep secret"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "TaskMate API",
	Description:      "TaskMate API Documentation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
