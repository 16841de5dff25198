package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/gocql/gocql"

	"rentshare/internal/infra/config"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewSession ensures schema exists and returns a connected Scylla session.
func NewSession(cfg config.Scylla, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(cfg.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name: %s", cfg.Keyspace)
	}

	baseCluster := gocql.NewCluster(cfg.Hosts...)
	baseCluster.Timeout = cfg.Timeout
	baseCluster.Consistency = cfg.Consistency
	setAuth(baseCluster, cfg)

	baseSession, err := baseCluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()

	if err := ensureKeyspace(context.Background(), baseSession, cfg); err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Timeout = cfg.Timeout
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = cfg.Consistency
	setAuth(cluster, cfg)

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.Keyspace, err)
	}
	if err := ensureTables(context.Background(), session, cfg.Keyspace); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", cfg.Hosts, "keyspace", cfg.Keyspace)
	}
	return session, nil
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, cfg config.Scylla) error {
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		cfg.Keyspace, cfg.ReplicationFactor,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

var tableStatements = []struct {
	name string
	cql  string
}{
	{"conversations", `
CREATE TABLE IF NOT EXISTS %s.conversations (
	id uuid PRIMARY KEY,
	item_id text,
	participants list<text>,
	created_at timestamp,
	last_message_at timestamp,
	last_message_sender_id text,
	last_message_text text
);`},
	{"conversations_by_key", `
CREATE TABLE IF NOT EXISTS %s.conversations_by_key (
	conversation_key text PRIMARY KEY,
	conversation_id uuid
);`},
	{"messages", `
CREATE TABLE IF NOT EXISTS %s.messages (
	conversation_id uuid,
	message_id timeuuid,
	sender_id text,
	text text,
	created_at timestamp,
	PRIMARY KEY (conversation_id, message_id)
) WITH CLUSTERING ORDER BY (message_id DESC);`},
	{"message_index", `
CREATE TABLE IF NOT EXISTS %s.message_index (
	message_id timeuuid PRIMARY KEY,
	conversation_id uuid
);`},
	{"reactions", `
CREATE TABLE IF NOT EXISTS %s.reactions (
	message_id timeuuid,
	emoji text,
	user_ids list<text>,
	PRIMARY KEY (message_id, emoji)
);`},
}

func ensureTables(ctx context.Context, session *gocql.Session, keyspace string) error {
	for _, stmt := range tableStatements {
		if err := session.Query(fmt.Sprintf(stmt.cql, keyspace)).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("create %s table: %w", stmt.name, err)
		}
	}
	return nil
}

func setAuth(cluster *gocql.ClusterConfig, cfg config.Scylla) {
	if cfg.Username == "" {
		return
	}
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	// avoid long stalls on auth/connect
	cluster.ConnectTimeout = cfg.Timeout
	cluster.Timeout = cfg.Timeout
}
