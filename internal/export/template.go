package export

import (
	"qp-hub-backend/internal/csvrecord"
	"qp-hub-backend/internal/model"
)

var templates = map[model.Kind]string{
	model.KindUser: "email,loginId,name\n" +
		"user1@example.com,user1,홍길동\n" +
		"user2@example.com,user2,김철수\n",
	model.KindServer: "name,host,sshPort,osType\n" +
		"web-server-01,192.168.1.10,22,UBUNTU\n" +
		"db-server-01,192.168.1.20,22,CENTOS\n" +
		"app-server-01,192.168.1.30,22,RHEL\n",
	model.KindDatabase: "name,databaseType,userName,password,host,port,clusterType\n" +
		"production_db,PostgreSQL,admin,password123,db1.example.com,5432,Primary\n" +
		"production_db,PostgreSQL,admin,password123,db2.example.com,5432,Secondary\n" +
		"test_db,MySQL,user,pass456,test-db.example.com,3306,Single\n" +
		"dev_db,MongoDB,dev_user,dev_pass789,dev-db.example.com,27017,Primary\n",
}

// Template returns the BOM-prefixed sample CSV for kind.
func Template(kind model.Kind) ([]byte, bool) {
	t, ok := templates[kind]
	if !ok {
		return nil, false
	}
	return csvrecord.AddBOM([]byte(t)), true
}

func TemplateFilename(kind model.Kind) string {
	return string(kind) + "_template.csv"
}
