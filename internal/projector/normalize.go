package projector

import (
	"strings"

	"github.com/samber/lo"
)

var OSTypes = []string{"ETC", "AWS_LINUX", "UBUNTU", "CENTOS", "RHEL", "WINDOWS"}

var osAliases = map[string]string{
	"LINUX":  "ETC",
	"AWS":    "AWS_LINUX",
	"REDHAT": "RHEL",
}

// NormalizeOSType uppercases and maps aliases; anything unknown becomes ETC.
// A blank value stays blank.
func NormalizeOSType(s string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return ""
	}
	if lo.Contains(OSTypes, v) {
		return v
	}
	if mapped, ok := osAliases[v]; ok {
		return mapped
	}
	return "ETC"
}

var DatabaseTypes = []string{
	"Mysql", "MariaDB", "PostgreSQL", "Redshift", "SQLServer", "AzureSQL", "Oracle",
	"Tibero", "MongoDB", "BigQuery", "Presto", "Trino", "Hive", "Cassandra",
	"DynamoDB", "Snowflake", "Impala", "Redis", "SingleStore", "Hana", "CustomDataSource",
}

var databaseAliases = func() map[string]string {
	m := lo.SliceToMap(DatabaseTypes, func(t string) (string, string) { return strings.ToLower(t), t })
	m["postgres"] = "PostgreSQL"
	m["mssql"] = "SQLServer"
	return m
}()

// NormalizeDatabaseType maps case variants onto the platform's names; unknown becomes PostgreSQL.
func NormalizeDatabaseType(s string) string {
	v := strings.TrimSpace(s)
	if v == "" {
		return ""
	}
	if lo.Contains(DatabaseTypes, v) {
		return v
	}
	if mapped, ok := databaseAliases[strings.ToLower(v)]; ok {
		return mapped
	}
	return "PostgreSQL"
}

var ClusterTypes = []string{"Primary", "Secondary", "Single"}

// NormalizeClusterType capitalizes the role; unknown becomes Single, blank stays blank.
func NormalizeClusterType(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return ""
	}
	v = strings.ToUpper(v[:1]) + v[1:]
	if lo.Contains(ClusterTypes, v) {
		return v
	}
	return "Single"
}
