package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transfer-pricing/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const migrationsCollection = "migrations"

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Migrator{
		db:         db,
		migrations: Migrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range pending(m.migrations, currentVersion) {
		m.logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

// pending returns the migrations above version, in order.
func pending(migrations []Migration, version int) []Migration {
	var out []Migration
	for _, migration := range migrations {
		if migration.Version > version {
			out = append(out, migration)
		}
	}
	return out
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(migrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(migrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create price_rules indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection("price_rules").Indexes().CreateMany(ctx, priceRuleIndexes())
				return err
			},
		},
		{
			Version:     2,
			Description: "Create routes indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection("routes").Indexes().CreateMany(ctx, routeIndexes())
				return err
			},
		},
	}
}

func priceRuleIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "applicable_routes", Value: 1}},
			Options: options.Index().SetName("active_applicable_routes"),
		},
		{
			Keys:    bson.D{{Key: "priority", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("priority_desc"),
		},
		{
			Keys:    bson.D{{Key: "rule_type", Value: 1}},
			Options: options.Index().SetName("rule_type"),
		},
	}
}

func routeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "rule_ids", Value: 1}},
			Options: options.Index().SetName("rule_ids"),
		},
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}},
			Options: options.Index().SetName("is_active"),
		},
	}
}
