// Package service contains the application use cases. Each subpackage
// orchestrates domain objects and store interfaces for one feature area:
// vocabulary items, study sessions, progress, quizzes and enrichment.
//
// This package holds what they share: the ServiceError type and sentinel
// errors the API layer maps to HTTP statuses.
package service
