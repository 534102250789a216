package sqlmapper

import (
	"strconv"
	"strings"
)

// Dialect bundles the driver-specific bits of SQL synthesis: placeholder
// style, identifier quoting and row limiting.
type Dialect struct {
	Name string
	Bind BindType
}

// DialectFor returns the dialect of a database/sql driver name.
func DialectFor(driverName string) Dialect {
	return Dialect{Name: driverName, Bind: BindTypeFor(driverName)}
}

func (d Dialect) family() string {
	switch d.Name {
	case "mysql", "nrmysql", "mariadb":
		return "mysql"
	case "sqlserver", "mssql", "azuresql":
		return "mssql"
	}
	return "ansi"
}

// Quote quotes a column identifier.
func (d Dialect) Quote(ident string) string {
	switch d.family() {
	case "mysql":
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	case "mssql":
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Limit renders the row-limiting suffix. OFFSET is left out when zero.
func (d Dialect) Limit(limit, offset int) string {
	if d.family() == "mssql" {
		return "offset " + strconv.Itoa(offset) + " rows fetch next " + strconv.Itoa(limit) + " rows only"
	}
	clause := "limit " + strconv.Itoa(limit)
	if offset > 0 {
		clause += " offset " + strconv.Itoa(offset)
	}
	return clause
}

// PointLimit renders the "first row only" suffix used by point lookups.
func (d Dialect) PointLimit() string {
	if d.family() == "mssql" {
		return ""
	}
	return "limit 1"
}
