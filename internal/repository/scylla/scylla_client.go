package scylla

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"security-service/internal/config"
	"security-service/internal/util"
)

// ScyllaClient owns the session shared by the notification, partner
// application, trading account and admin role repositories.
type ScyllaClient struct {
	Session *gocql.Session
	config  config.ScyllaConfig
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if cfg.IsProduction() {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 util.GetEnv("SCYLLA_CA_FILE", "/etc/security-service/certs/ca.pem"),
			CertPath:               util.GetEnv("SCYLLA_CERT_FILE", "/etc/security-service/certs/client.pem"),
			KeyPath:                util.GetEnv("SCYLLA_KEY_FILE", "/etc/security-service/certs/client.key"),
			EnableHostVerification: true,
		}
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	util.Info("ScyllaDB client initialized",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return &ScyllaClient{
		Session: session,
		config:  scyllaConfig,
	}, nil
}

// HealthCheck runs a lightweight system query.
func (c *ScyllaClient) HealthCheck() error {
	return c.Session.Query("SELECT release_version FROM system.local").Exec()
}

func (c *ScyllaClient) Close() {
	if c.Session != nil && !c.Session.Closed() {
		c.Session.Close()
		util.Info("ScyllaDB session closed")
	}
}
