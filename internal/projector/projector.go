// Package projector maps parsed CSV records onto normalized entity records.
package projector

import (
	"github.com/samber/lo"

	"qp-hub-backend/internal/csvrecord"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/pkg/utils"
)

// Projector is the per-entity strategy applied to parser output.
type Projector[T any] struct {
	Kind      model.Kind
	MinFields int
	Project   func(csvrecord.Record) (T, bool)
	// Reduce runs after projection; nil keeps rows as they are.
	Reduce func([]T) []T
}

// Apply drops short or incomplete rows and returns the rest in input order.
func (p Projector[T]) Apply(records []csvrecord.Record) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if rec.Width < p.MinFields {
			continue
		}
		if v, ok := p.Project(rec); ok {
			out = append(out, v)
		}
	}
	if p.Reduce != nil {
		out = p.Reduce(out)
	}
	return out
}

// ParseText is Parse followed by Apply.
func (p Projector[T]) ParseText(text string) []T {
	return p.Apply(csvrecord.Parse(text))
}

var Users = Projector[model.User]{
	Kind:      model.KindUser,
	MinFields: 3,
	Project:   projectUser,
}

var Servers = Projector[model.Server]{
	Kind:      model.KindServer,
	MinFields: 3,
	Project:   projectServer,
}

var Databases = Projector[model.Database]{
	Kind:      model.KindDatabase,
	MinFields: 4,
	Project:   projectDatabase,
	Reduce:    GroupDatabases,
}

func projectUser(rec csvrecord.Record) (model.User, bool) {
	u := model.User{
		Email:    rec.Get("email"),
		LoginID:  rec.Get("loginid", "login_id"),
		Name:     rec.Get("name"),
		Password: rec.Get("password"),
	}
	return u, u.Complete()
}

func projectServer(rec csvrecord.Record) (model.Server, bool) {
	s := model.Server{
		Name:       rec.Get("name", "hostname"),
		Host:       rec.Get("host", "ip"),
		SSHPort:    port(rec.Get("sshport", "ssh_port", "port")),
		OSType:     NormalizeOSType(rec.Get("ostype", "os_type", "os")),
		FTPPort:    port(rec.Get("ftpport", "ftp_port")),
		TelnetPort: port(rec.Get("telnetport", "telnet_port")),
		VNCPort:    port(rec.Get("vncport", "vnc_port")),
	}
	return s, s.Complete()
}

func projectDatabase(rec csvrecord.Record) (model.Database, bool) {
	d := model.Database{
		Name:         rec.Get("name"),
		DatabaseType: NormalizeDatabaseType(rec.Get("databasetype", "database_type", "type")),
		UserName:     rec.Get("username", "user_name", "user"),
		Password:     rec.Get("password", "pass"),
		Clusters: []model.Cluster{{
			Host:        rec.Get("host"),
			Port:        port(rec.Get("port")),
			ClusterType: NormalizeClusterType(rec.Get("clustertype", "cluster_type")),
		}},
	}
	return d, d.Complete()
}

// GroupDatabases merges rows sharing (name, databaseType, userName).
// The first row seeds scalar fields; every row contributes its clusters in order.
func GroupDatabases(rows []model.Database) []model.Database {
	keys := lo.Uniq(lo.Map(rows, func(d model.Database, _ int) string { return d.Identity() }))
	groups := lo.GroupBy(rows, func(d model.Database) string { return d.Identity() })
	return lo.Map(keys, func(k string, _ int) model.Database {
		g := groups[k]
		merged := g[0]
		merged.Clusters = lo.FlatMap(g, func(d model.Database, _ int) []model.Cluster { return d.Clusters })
		return merged
	})
}

// port is 0 for a blank, malformed or out-of-range value, which leaves required ports incomplete.
func port(s string) int {
	n, err := utils.ParsePort(s)
	if err != nil {
		return 0
	}
	return n
}
