package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Notes API",
        "description": "Students, courses, chapter notes and chapter-scoped chat over uploaded files",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Registration, enrollment and personal notes"},
        {"name": "Courses", "description": "Courses and their chapters"},
        {"name": "Files", "description": "Chapter file upload, directory and removal"},
        {"name": "Conversations", "description": "Chapter chat backed by the inference service"}
    ],
    "paths": {
        "/students/register": {
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "Validation error or duplicate email", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Student profile with enrolled courses",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/enroll": {
            "post": {
                "tags": ["Students"],
                "summary": "Enroll student in course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Already enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or course not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/add-chapter": {
            "post": {
                "tags": ["Students"],
                "summary": "Select chapter for an enrolled course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChapterSelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Not enrolled or already selected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/remove-chapter": {
            "post": {
                "tags": ["Students"],
                "summary": "Remove chapter selection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChapterSelectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/upload-note": {
            "post": {
                "tags": ["Students"],
                "summary": "Upload personal note for a selected chapter",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "studentId", "in": "formData", "required": true, "type": "string"},
                    {"name": "courseId", "in": "formData", "required": true, "type": "string"},
                    {"name": "chapterId", "in": "formData", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No file, not enrolled or chapter not added", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/create": {
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CourseCreated"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/student/{studentId}": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses owned by a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CourseList"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Course with chapters",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Course"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/chapters/add": {
            "post": {
                "tags": ["Courses"],
                "summary": "Add chapter to course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateChapterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ChapterCreated"}},
                    "404": {"description": "Course not found for this student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/chapters/{studentId}/{courseId}": {
            "get": {
                "tags": ["Courses"],
                "summary": "List chapters of a course",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ChapterList"}}
                }
            }
        },
        "/files/upload": {
            "post": {
                "tags": ["Files"],
                "summary": "Upload chapter file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "studentId", "in": "formData", "required": true, "type": "string"},
                    {"name": "courseId", "in": "formData", "required": true, "type": "string"},
                    {"name": "chapterId", "in": "formData", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FileDescriptor"}},
                    "400": {"description": "No file uploaded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Chapter not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Blob store not ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files": {
            "get": {
                "tags": ["Files"],
                "summary": "List file directory",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "chapterId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FileList"}, "headers": {"X-Cache-Hit": {"type": "boolean"}, "X-Processing-Time-Ms": {"type": "integer"}}}
                }
            }
        },
        "/files/{id}": {
            "get": {
                "tags": ["Files"],
                "summary": "File descriptor with signed download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Files"],
                "summary": "Delete file, blob and chapter reference",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File deleted successfully", "schema": {"$ref": "#/definitions/MessageBody"}},
                    "400": {"description": "Invalid file id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/files/{id}/download": {
            "get": {
                "tags": ["Files"],
                "summary": "Stream file content",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conversations/{chapterId}": {
            "post": {
                "tags": ["Conversations"],
                "summary": "Send chat message",
                "parameters": [
                    {"name": "chapterId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "Answer and updated transcript", "schema": {"$ref": "#/definitions/ChatReply"}},
                    "400": {"description": "Missing message or ids", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Chapter or student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "tags": ["Conversations"],
                "summary": "Conversation transcript",
                "parameters": [
                    {"name": "chapterId", "in": "query", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Conversation"}}
                }
            }
        },
        "/conversations/export": {
            "get": {
                "tags": ["Conversations"],
                "summary": "Export transcript",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "chapterId", "in": "query", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Transcript document"},
                    "400": {"description": "Unsupported export format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "summary": "Request and job counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterStudentRequest": {
            "type": "object",
            "required": ["name", "email"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["studentId", "courseId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"}
            }
        },
        "ChapterSelectionRequest": {
            "type": "object",
            "required": ["studentId", "courseId", "chapterId"],
            "properties": {
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "chapterId": {"type": "string"}
            }
        },
        "CreateCourseRequest": {
            "type": "object",
            "required": ["title", "studentId"],
            "properties": {
                "title": {"type": "string"},
                "course_code": {"type": "string"},
                "studentId": {"type": "string"}
            }
        },
        "CreateChapterRequest": {
            "type": "object",
            "required": ["title", "studentId", "courseId"],
            "properties": {
                "title": {"type": "string"},
                "studentId": {"type": "string"},
                "courseId": {"type": "string"}
            }
        },
        "SendMessageRequest": {
            "type": "object",
            "required": ["studentId", "message"],
            "properties": {
                "studentId": {"type": "string"},
                "message": {"type": "string"},
                "text": {"type": "string", "description": "Read when message is blank"},
                "sender": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "enrolledCourses": {"type": "array", "items": {"type": "object"}},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "Chapter": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "_id": {"type": "string"},
                "title": {"type": "string"},
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "filesIds": {"type": "array", "items": {"type": "string"}},
                "conversationsIds": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "ChapterList": {"type": "array", "items": {"$ref": "#/definitions/Chapter"}},
        "ChapterCreated": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "chapter": {"$ref": "#/definitions/Chapter"}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "_id": {"type": "string"},
                "title": {"type": "string"},
                "course_code": {"type": "string"},
                "studentId": {"type": "string"},
                "chapters": {"$ref": "#/definitions/ChapterList"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "CourseList": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
        "CourseCreated": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "course": {"$ref": "#/definitions/Course"}
            }
        },
        "FileDescriptor": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "_id": {"type": "string"},
                "filename": {"type": "string"},
                "contentType": {"type": "string"},
                "mimetype": {"type": "string"},
                "size": {"type": "integer"},
                "uploadDate": {"type": "string", "format": "date-time"},
                "studentId": {"type": "string"},
                "courseId": {"type": "string"},
                "chapterId": {"type": "string"}
            }
        },
        "FileList": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/FileDescriptor"}}
            }
        },
        "MessageBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "Turn": {
            "type": "object",
            "properties": {
                "sender": {"type": "string", "enum": ["student", "llm"]},
                "text": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "_id": {"type": "string"},
                "student": {"type": "string"},
                "chapter": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/Turn"}}
            }
        },
        "ChatReply": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "conversation": {"$ref": "#/definitions/Conversation"}
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
