package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number or a numeric string; anything else decodes to 0.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(int(n))
	return nil
}

func (f FlexInt) Or(def int) int {
	if f == 0 {
		return def
	}
	return int(f)
}

type CreateUserRequest struct {
	Email     string `json:"email" binding:"required"`
	LoginID   string `json:"loginId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Password  string `json:"password" binding:"required"`
	TargetURL string `json:"targetUrl" binding:"required"`
}

type CreateServerRequest struct {
	TargetURL  string  `json:"targetUrl" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Host       string  `json:"host" binding:"required"`
	SSHPort    FlexInt `json:"sshPort" binding:"required"`
	OSType     string  `json:"osType" binding:"required"`
	FTPPort    FlexInt `json:"ftpPort"`
	TelnetPort FlexInt `json:"telnetPort"`
	VNCPort    FlexInt `json:"vncPort"`
}

type ClusterRequest struct {
	Host string  `json:"host"`
	Port FlexInt `json:"port"`
	Type string  `json:"type"`
}

type CreateConnectionRequest struct {
	TargetURL                  string             `json:"targetUrl" binding:"required"`
	Name                       string             `json:"name" binding:"required"`
	DatabaseType               string             `json:"databaseType" binding:"required"`
	UserName                   string             `json:"userName" binding:"required"`
	Password                   string             `json:"password" binding:"required"`
	HideCredential             *bool              `json:"hideCredential"`
	UseProxy                   *bool              `json:"useProxy"`
	ProxyAuthType              string             `json:"proxyAuthType"`
	MaxDisplayRows             *int               `json:"maxDisplayRows"`
	MaxExportRows              *int               `json:"maxExportRows"`
	UseFixedCredentialForAgent *bool              `json:"useFixedCredentialForAgent"`
	Clusters                   []ClusterRequest   `json:"clusters" binding:"required"`
	ConnectionAccount          *ConnectionAccount `json:"connectionAccount" binding:"required"`
}

type CreateClusterRequest struct {
	TargetURL        string  `json:"targetUrl" binding:"required"`
	ClusterGroupUUID string  `json:"clusterGroupUuid" binding:"required"`
	Host             string  `json:"host" binding:"required"`
	Port             FlexInt `json:"port" binding:"required"`
	Type             string  `json:"type" binding:"required"`
}

// SubmitRequest starts an upload run over a batch session.
type SubmitRequest struct {
	TargetURL string `json:"targetUrl" binding:"required"`
	Password  string `json:"password"`
}
