package database

import (
	"net/url"
	"strconv"

	"github.com/rickgao/chat-client/internal/config"
)

// ApplicationName is reported to Postgres in pg_stat_activity.
const ApplicationName = "chat-client"

// BuildConnString builds a PostgreSQL connection URL from config.
// Credentials are escaped by url.UserPassword.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
