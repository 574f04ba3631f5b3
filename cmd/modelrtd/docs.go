package main

// General API documentation for swaggo. Run `make swagger-gen` (swag init)
// to produce the generated docs package before building with -tags=swagger.
//
// @title           modelrtd API
// @version         1.0
// @description     On-device model lifecycle runtime: install, select, schedule, and stream inference.
//
// @contact.name   modelrt maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
