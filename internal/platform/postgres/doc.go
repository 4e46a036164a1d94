// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver. Dynamic queries are built with squirrel;
// the schema is managed by goose migrations embedded in the binary.
package postgres
