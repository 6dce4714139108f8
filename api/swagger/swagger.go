package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Classroom Reservation API",
        "description": "Classroom booking, occupancy ledgers and the weekly student timetable",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reservations", "description": "Ad-hoc classroom bookings for student activities"},
        {"name": "UsageRecords", "description": "Generic classroom occupancy ledger"},
        {"name": "Schedules", "description": "Per-student timetable entries and the weekly view"},
        {"name": "Courses", "description": "Curricular class sessions"},
        {"name": "Classrooms", "description": "Classroom reference data and free-room search"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/reservations": {
            "get": {
                "tags": ["Reservations"],
                "summary": "List reservations",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "classroomId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reservations"],
                "summary": "Book a classroom slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReservationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or unknown reference"},
                    "409": {"description": "Time slot already reserved"}
                }
            }
        },
        "/reservations/{id}": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Get a reservation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Reservations"],
                "summary": "Update a reservation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReservationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Time slot already reserved"}
                }
            },
            "delete": {
                "tags": ["Reservations"],
                "summary": "Delete a reservation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/usage-records": {
            "get": {
                "tags": ["UsageRecords"],
                "summary": "List usage records",
                "parameters": [
                    {"name": "classroomId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["UsageRecords"],
                "summary": "Record classroom usage for a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUsageRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or unknown reference"},
                    "409": {"description": "Time slot already reserved"}
                }
            }
        },
        "/usage-records/{id}": {
            "get": {
                "tags": ["UsageRecords"],
                "summary": "Get a usage record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["UsageRecords"],
                "summary": "Update a usage record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateUsageRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Time slot already reserved"}
                }
            },
            "delete": {
                "tags": ["UsageRecords"],
                "summary": "Delete a usage record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules or fetch a student's weekly timetable",
                "description": "With both studentId and week the response is the aggregated seven-day view; with neither it is a paginated listing.",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "week", "in": "query", "type": "integer"},
                    {"name": "classroomId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "studentId and week must be supplied together"}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a schedule entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or unknown reference"},
                    "409": {"description": "Time slot already reserved"}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Schedules"],
                "summary": "Update a schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Time slot already reserved"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a schedule entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "classroomId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or unknown reference"},
                    "409": {"description": "Time slot already reserved"}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"},
                    "409": {"description": "Time slot already reserved"}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms or search free rooms",
                "description": "With both date and timeSlot the listing becomes a free-room search across all occupancy ledgers.",
                "parameters": [
                    {"name": "collegeId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "timeSlot", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid time slot"}
                }
            }
        },
        "/classrooms/{id}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Get a classroom",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "CreateReservationRequest": {
            "type": "object",
            "required": ["student_id", "classroom_id", "activity_name", "date", "time_slot"],
            "properties": {
                "student_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "activity_name": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "example": "2025-03-03"},
                "time_slot": {"type": "string", "example": "3-4"},
                "status": {"type": "string", "enum": ["pending", "approved", "cancelled", "rejected"]},
                "teacher_id": {"type": "string"},
                "participants": {"type": "integer"}
            }
        },
        "UpdateReservationRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "activity_name": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"},
                "time_slot": {"type": "string"},
                "status": {"type": "string"},
                "teacher_id": {"type": "string"},
                "participants": {"type": "integer"}
            }
        },
        "CreateUsageRecordRequest": {
            "type": "object",
            "required": ["classroom_id", "date", "time_slot", "type"],
            "properties": {
                "classroom_id": {"type": "string"},
                "date": {"type": "string", "example": "2025-03-03"},
                "time_slot": {"type": "string", "example": "5-6"},
                "type": {"type": "string"},
                "event_id": {"type": "string"},
                "status": {"type": "string", "enum": ["scheduled", "active", "cancelled", "rejected"]},
                "teacher_id": {"type": "string"},
                "participants": {"type": "integer"}
            }
        },
        "UpdateUsageRecordRequest": {
            "type": "object",
            "properties": {
                "classroom_id": {"type": "string"},
                "date": {"type": "string"},
                "time_slot": {"type": "string"},
                "type": {"type": "string"},
                "event_id": {"type": "string"},
                "status": {"type": "string"},
                "teacher_id": {"type": "string"},
                "participants": {"type": "integer"}
            }
        },
        "CreateScheduleRequest": {
            "type": "object",
            "required": ["student_id", "course_name", "classroom_id", "start_time", "end_time"],
            "properties": {
                "student_id": {"type": "string"},
                "course_name": {"type": "string"},
                "classroom_id": {"type": "string"},
                "start_time": {"type": "string", "example": "2025-03-03T08:00:00Z"},
                "end_time": {"type": "string", "example": "2025-03-03T09:40:00Z"},
                "status": {"type": "string", "enum": ["scheduled", "cancelled"]},
                "teacher_id": {"type": "string"},
                "time_slot": {"type": "string"}
            }
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "course_name": {"type": "string"},
                "classroom_id": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "status": {"type": "string"},
                "teacher_id": {"type": "string"},
                "time_slot": {"type": "string"}
            }
        },
        "CreateCourseRequest": {
            "type": "object",
            "required": ["name", "teacher_id", "classroom_id", "start_time", "end_time"],
            "properties": {
                "name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "start_time": {"type": "string", "example": "2025-03-03T10:00:00Z"},
                "end_time": {"type": "string", "example": "2025-03-03T11:40:00Z"},
                "time_slot": {"type": "string"},
                "participants": {"type": "integer"}
            }
        },
        "UpdateCourseRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "time_slot": {"type": "string"},
                "participants": {"type": "integer"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
