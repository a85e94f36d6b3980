// Package migration holds the SQL schema for the lookup cache and saved runs.
package migration

import _ "embed"

//go:embed create-tables.sql
var Create string
