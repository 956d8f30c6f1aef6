// Package schema holds the DDL of the preferences example, one file per dialect.
package schema

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Statements returns the DDL statements for dbType ("sqlite", "mysql" or "postgres") in
// file order.
func Statements(dbType string) ([]string, error) {
	content, err := files.ReadFile(dbType + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no schema for database type '%s': %w", dbType, err)
	}
	return split(string(content)), nil
}

// split separates statements on ';'. The DDL files contain no string literals.
func split(content string) []string {
	var statements []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
