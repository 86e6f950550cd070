package model

// Wire shapes sent to {targetUrl}/api/external/v2/...

type UserPayload struct {
	Email    string `json:"email"`
	LoginID  string `json:"loginId"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type ServerPayload struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	SSHPort    int    `json:"sshPort"`
	OSType     string `json:"osType"`
	FTPPort    int    `json:"ftpPort"`
	TelnetPort int    `json:"telnetPort"`
	VNCPort    int    `json:"vncPort"`
}

const (
	DefaultSSHPort    = 22
	DefaultFTPPort    = 21
	DefaultTelnetPort = 23
	DefaultVNCPort    = 5900
)

func (s Server) Payload() ServerPayload {
	return ServerPayload{
		Name:       s.Name,
		Host:       s.Host,
		SSHPort:    orDefault(s.SSHPort, DefaultSSHPort),
		OSType:     s.OSType,
		FTPPort:    orDefault(s.FTPPort, DefaultFTPPort),
		TelnetPort: orDefault(s.TelnetPort, DefaultTelnetPort),
		VNCPort:    orDefault(s.VNCPort, DefaultVNCPort),
	}
}

type ClusterPayload struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Type string `json:"type"`
}

type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UsernamePasswords struct {
	Common Credential `json:"common"`
}

type ConnectionAccount struct {
	Type                       string            `json:"type"`
	UseMultipleDatabaseAccount bool              `json:"useMultipleDatabaseAccount"`
	UsernamePasswords          UsernamePasswords `json:"usernamePasswords"`
}

type ConnectionPayload struct {
	Name                       string            `json:"name"`
	DatabaseType               string            `json:"databaseType"`
	UserName                   string            `json:"userName"`
	Password                   string            `json:"password"`
	HideCredential             bool              `json:"hideCredential"`
	UseProxy                   bool              `json:"useProxy"`
	ProxyAuthType              string            `json:"proxyAuthType"`
	MaxDisplayRows             int               `json:"maxDisplayRows"`
	MaxExportRows              int               `json:"maxExportRows"`
	UseFixedCredentialForAgent bool              `json:"useFixedCredentialForAgent"`
	Clusters                   []ClusterPayload  `json:"clusters"`
	ConnectionAccount          ConnectionAccount `json:"connectionAccount"`
}

const (
	ProxyAuthQueryPie = "QUERYPIE"
	AccountTypeUIDPWD = "UIDPWD"
)

// DefaultConnectionAccount uses one shared username/password for every cluster.
func DefaultConnectionAccount(userName, password string) ConnectionAccount {
	return ConnectionAccount{
		Type: AccountTypeUIDPWD,
		UsernamePasswords: UsernamePasswords{
			Common: Credential{Username: userName, Password: password},
		},
	}
}

// NewConnectionPayload fills the optional flags with the platform defaults.
func NewConnectionPayload(req *CreateConnectionRequest) ConnectionPayload {
	p := ConnectionPayload{
		Name:                       req.Name,
		DatabaseType:               req.DatabaseType,
		UserName:                   req.UserName,
		Password:                   req.Password,
		HideCredential:             boolOr(req.HideCredential, false),
		UseProxy:                   boolOr(req.UseProxy, true),
		ProxyAuthType:              req.ProxyAuthType,
		MaxDisplayRows:             intOr(req.MaxDisplayRows, -1),
		MaxExportRows:              intOr(req.MaxExportRows, -1),
		UseFixedCredentialForAgent: boolOr(req.UseFixedCredentialForAgent, false),
		Clusters:                   make([]ClusterPayload, 0, len(req.Clusters)),
	}
	if p.ProxyAuthType == "" {
		p.ProxyAuthType = ProxyAuthQueryPie
	}
	for _, c := range req.Clusters {
		p.Clusters = append(p.Clusters, ClusterPayload{Host: c.Host, Port: int(c.Port), Type: c.Type})
	}
	if req.ConnectionAccount != nil {
		p.ConnectionAccount = *req.ConnectionAccount
	} else {
		p.ConnectionAccount = DefaultConnectionAccount(req.UserName, req.Password)
	}
	return p
}

// ConnectionRequest turns an imported record into the proxy request shape.
func (d Database) ConnectionRequest(targetURL string) *CreateConnectionRequest {
	req := &CreateConnectionRequest{
		TargetURL:    targetURL,
		Name:         d.Name,
		DatabaseType: d.DatabaseType,
		UserName:     d.UserName,
		Password:     d.Password,
		Clusters:     make([]ClusterRequest, 0, len(d.Clusters)),
	}
	for _, c := range d.Clusters {
		req.Clusters = append(req.Clusters, ClusterRequest{Host: c.Host, Port: FlexInt(c.Port), Type: c.ClusterType})
	}
	account := DefaultConnectionAccount(d.UserName, d.Password)
	req.ConnectionAccount = &account
	return req
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
