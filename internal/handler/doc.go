// Package handler implements the netcore HTTP API.
//
// Routes (net/http ServeMux method patterns):
//
//	GET    /health/live
//	GET    /health/ready
//	GET    /api/v1/devices
//	POST   /api/v1/devices
//	GET    /api/v1/devices/{id}
//	PATCH  /api/v1/devices/{id}
//	DELETE /api/v1/devices/{id}
//	GET    /api/v1/links
//	POST   /api/v1/links
//	GET    /api/v1/links/{id}
//	PATCH  /api/v1/links/{id}
//	DELETE /api/v1/links/{id}
//	GET    /api/v1/export/{format}
//	POST   /api/v1/discovery/run
//
// Errors are returned as JSON {error, details}. Missing records map to 404,
// duplicate addresses to 409, validation failures to 400 and malformed scan
// documents to 422.
package handler
