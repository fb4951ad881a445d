package database

import (
	"strings"
)

// ConstructDatabaseURL appends databaseName to the path of baseURL and adds
// sslmode=disable unless an sslmode is already present. An empty databaseName
// returns baseURL unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(baseURL, "?")
	databaseURL := strings.TrimRight(base, "/") + "/" + databaseName

	if !strings.Contains(query, "sslmode=") {
		if query != "" {
			query += "&"
		}
		query += "sslmode=disable"
		hasQuery = true
	}
	if hasQuery {
		databaseURL += "?" + query
	}

	return databaseURL
}
