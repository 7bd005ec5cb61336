package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fiber/responta/config"
)

var (
	DB     *gorm.DB
	Mongo  *mongo.Database
	client *mongo.Client
)

func ConnectDB() error {
	if err := connectPostgres(); err != nil {
		return err
	}
	return connectMongo()
}

func connectPostgres() error {
	var err error
	DB, err = gorm.Open(postgres.Open(config.Env.DBDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	config.Log.Info("Connected to PostgreSQL successfully")
	return nil
}

func connectMongo() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	client, err = mongo.Connect(ctx, options.Client().ApplyURI(config.Env.MongoURI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}

	Mongo = client.Database(config.Env.MongoDB)

	config.Log.Info("Connected to MongoDB successfully")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// SQL exposes gorm's pool for repositories that write raw SQL.
func SQL() *sql.DB {
	sqlDB, err := DB.DB()
	if err != nil {
		config.Log.WithError(err).Fatal("postgres pool unavailable")
	}
	return sqlDB
}

func GetMongo() *mongo.Database {
	return Mongo
}

func Close() {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}
