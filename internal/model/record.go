package model

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Status is the lifecycle state of one row: '' -> processing -> success|error.
type Status string

const (
	StatusUnsent     Status = ""
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Label is the operator-facing text shown in tables and exports.
func (s Status) Label() string {
	switch s {
	case StatusSuccess:
		return "성공"
	case StatusError:
		return "실패"
	case StatusProcessing:
		return "진행중..."
	}
	return ""
}

type Kind string

const (
	KindUser     Kind = "users"
	KindServer   Kind = "servers"
	KindDatabase Kind = "databases"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindUser, "user":
		return KindUser, true
	case KindServer, "server":
		return KindServer, true
	case KindDatabase, "database":
		return KindDatabase, true
	}
	return "", false
}

type User struct {
	Email    string `json:"email" validate:"required"`
	LoginID  string `json:"loginId" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password,omitempty"`
}

func (u User) Complete() bool {
	return validate.Struct(u) == nil
}

func (u User) Identity() string {
	return strings.Join([]string{u.Email, u.LoginID, u.Name}, "\x00")
}

func (u User) ExportRows() [][]string {
	return [][]string{{u.Email, u.LoginID, u.Name}}
}

type Server struct {
	Name       string `json:"name" validate:"required"`
	Host       string `json:"host" validate:"required"`
	SSHPort    int    `json:"sshPort" validate:"required"`
	OSType     string `json:"osType" validate:"required"`
	FTPPort    int    `json:"ftpPort,omitempty"`
	TelnetPort int    `json:"telnetPort,omitempty"`
	VNCPort    int    `json:"vncPort,omitempty"`
}

func (s Server) Complete() bool {
	return validate.Struct(s) == nil
}

func (s Server) Identity() string {
	return strings.Join([]string{s.Name, s.Host, strconv.Itoa(s.SSHPort)}, "\x00")
}

func (s Server) ExportRows() [][]string {
	return [][]string{{s.Name, s.Host, strconv.Itoa(s.SSHPort), s.OSType}}
}

// Cluster is one host/port/role triple of a database connection.
type Cluster struct {
	Host        string `json:"host" validate:"required"`
	Port        int    `json:"port" validate:"required"`
	ClusterType string `json:"clusterType" validate:"required"`
}

type Database struct {
	Name         string    `json:"name" validate:"required"`
	DatabaseType string    `json:"databaseType" validate:"required"`
	UserName     string    `json:"userName" validate:"required"`
	Password     string    `json:"password" validate:"required"`
	Clusters     []Cluster `json:"clusters" validate:"required,min=1,dive"`
}

func (d Database) Complete() bool {
	return validate.Struct(d) == nil
}

// Identity is the (name, databaseType, userName) triple rows are merged on.
func (d Database) Identity() string {
	return strings.Join([]string{d.Name, d.DatabaseType, d.UserName}, "\x00")
}

// ExportRows emits one line per cluster; the password is masked.
func (d Database) ExportRows() [][]string {
	masked := strings.Repeat("*", len(d.Password))
	if len(d.Clusters) == 0 {
		return [][]string{{d.Name, d.DatabaseType, d.UserName, masked, "", "", ""}}
	}
	rows := make([][]string, 0, len(d.Clusters))
	for _, c := range d.Clusters {
		rows = append(rows, []string{d.Name, d.DatabaseType, d.UserName, masked, c.Host, strconv.Itoa(c.Port), c.ClusterType})
	}
	return rows
}

// ExportHeader returns the entity columns for a result export.
func ExportHeader(kind Kind) []string {
	switch kind {
	case KindUser:
		return []string{"email", "loginId", "name"}
	case KindServer:
		return []string{"name", "host", "sshPort", "osType"}
	case KindDatabase:
		return []string{"name", "databaseType", "userName", "password", "host", "port", "clusterType"}
	}
	return nil
}
