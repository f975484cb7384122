// Package database ouvre les connexions aux backends : ScyllaDB (un keyspace par domaine),
// Redis, MongoDB, Elasticsearch et MinIO. Seuls Redis et ScyllaDB sont obligatoires en
// production ; un backend optionnel non configuré reste nil.
package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"pokestore_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// --- ScyllaDB ---

type ScyllaManager struct {
	cfg      config.ScyllaConfig
	sessions map[string]*gocql.Session // keyspace → session
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewScyllaManager(cfg config.ScyllaConfig, logger *zap.Logger) *ScyllaManager {
	return &ScyllaManager{cfg: cfg, sessions: make(map[string]*gocql.Session), logger: logger}
}

func (sm *ScyllaManager) cluster(keyspace string) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(sm.cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.Serial
	cluster.Timeout = sm.cfg.Timeout
	cluster.NumConns = sm.cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if sm.cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: sm.cfg.Username,
			Password: sm.cfg.Password,
		}
	}

	if sm.cfg.SSLEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if sm.cfg.CACertPath != "" {
			caCert, err := os.ReadFile(sm.cfg.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("impossible de lire le certificat CA: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("impossible de parser le certificat CA")
			}
			tlsConfig.RootCAs = pool
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig, EnableHostVerification: true}
	}

	return cluster, nil
}

// Session retourne (ou ouvre) la session d'un keyspace
func (sm *ScyllaManager) Session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[keyspace]; ok && !session.Closed() {
		return session, nil
	}

	cluster, err := sm.cluster(keyspace)
	if err != nil {
		return nil, fmt.Errorf("configuration cluster %s: %w", keyspace, err)
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	sm.logger.Info("✅ session ScyllaDB ouverte", zap.String("keyspace", keyspace))
	return session, nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		sm.logger.Info("🔌 session ScyllaDB fermée", zap.String("keyspace", keyspace))
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// --- Connexions ---

type Connections struct {
	Scylla   *ScyllaManager
	Products *gocql.Session
	Orders   *gocql.Session
	Redis    *redis.Client
	Mongo    *mongo.Client
	Elastic  *elasticsearch.Client
	MinIO    *minio.Client

	logger *zap.Logger
}

// Connect ouvre toutes les connexions configurées. Un échec sur un backend obligatoire
// est fatal ; un backend optionnel injoignable est journalisé et désactivé.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := &Connections{logger: logger}

	// 1. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}
	logger.Info("✅ Connecté à Redis", zap.String("addr", cfg.Redis.Addr))

	// 2. ScyllaDB
	if cfg.ScyllaEnabled() {
		if err := c.connectScylla(ctx, cfg.Scylla); err != nil {
			c.Close()
			return nil, err
		}
	} else {
		logger.Warn("⚠️ ScyllaDB non configuré, stockage en mémoire")
	}

	// 3. MongoDB (audit)
	if cfg.MongoDB.URI != "" {
		c.Mongo = connectMongo(ctx, cfg.MongoDB, logger)
	}

	// 4. Elasticsearch
	if cfg.Elastic.URL != "" {
		c.Elastic = connectElastic(cfg.Elastic, logger)
	}

	// 5. MinIO
	if cfg.MinIO.Endpoint != "" {
		c.MinIO = connectMinIO(ctx, cfg.MinIO, logger)
	}

	return c, nil
}

func (c *Connections) connectScylla(ctx context.Context, cfg config.ScyllaConfig) error {
	c.Scylla = NewScyllaManager(cfg, c.logger)

	var err error
	if c.Products, err = c.Scylla.Session(cfg.ProductsKeyspace); err != nil {
		return fmt.Errorf("keyspace %s: %w", cfg.ProductsKeyspace, err)
	}
	if c.Orders, err = c.Scylla.Session(cfg.OrdersKeyspace); err != nil {
		return fmt.Errorf("keyspace %s: %w", cfg.OrdersKeyspace, err)
	}

	if cfg.Bootstrap {
		if err := CreateSchema(ctx, c.Products, ProductsSchema); err != nil {
			return err
		}
		if err := CreateSchema(ctx, c.Orders, OrdersSchema); err != nil {
			return err
		}
		c.logger.Info("✅ schéma ScyllaDB vérifié")
	}
	return nil
}

func connectMongo(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) *mongo.Client {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Warn("⚠️ MongoDB indisponible, audit désactivé", zap.Error(err))
		return nil
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Warn("⚠️ MongoDB injoignable, audit désactivé", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil
	}
	logger.Info("✅ Connecté à MongoDB", zap.String("database", cfg.Database))
	return client
}

func connectElastic(cfg config.ElasticConfig, logger *zap.Logger) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		logger.Warn("⚠️ client Elasticsearch invalide, synchro désactivée", zap.Error(err))
		return nil
	}

	res, err := client.Info()
	if err != nil {
		logger.Warn("⚠️ Elasticsearch injoignable, synchro désactivée", zap.Error(err))
		return nil
	}
	defer res.Body.Close()
	if res.IsError() {
		logger.Warn("⚠️ Elasticsearch en erreur, synchro désactivée", zap.String("status", res.Status()))
		return nil
	}

	logger.Info("✅ Connecté à Elasticsearch")
	return client
}

func connectMinIO(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) *minio.Client {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Warn("⚠️ client MinIO invalide, archivage désactivé", zap.Error(err))
		return nil
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		logger.Warn("⚠️ MinIO injoignable, archivage désactivé", zap.Error(err))
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			logger.Warn("⚠️ création bucket MinIO échouée", zap.String("bucket", cfg.Bucket), zap.Error(err))
			return nil
		}
		logger.Info("🪣 Bucket créé", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.Endpoint))
	return client
}

func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Mongo.Disconnect(ctx)
	}
}
