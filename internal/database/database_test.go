package database

import (
	"context"
	"path/filepath"
	"testing"

	"nextfilm/internal/config"
	"nextfilm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = "sqlite"
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)

	d, err := dialectorFor(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = dialectorFor(&config.Config{DBDriver: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}

func TestConnect_SQLiteAppliesSchema(t *testing.T) {
	cfg := &config.Config{
		Env:        "development",
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "nextfilm.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)

	for _, model := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}

	user := models.User{FirstName: "Ada", LastName: "L", Username: "ada", Email: "ada@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	err = db.Create(&models.Follow{FollowerID: user.ID, FollowingID: 999}).Error
	assert.Error(t, err, "foreign keys are enforced")
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantSQL   bool
		wantAuto  bool
		expectErr bool
	}{
		{"hybrid dev", config.Config{Env: "development", DBDriver: "postgres"}, true, true, false},
		{"hybrid prod", config.Config{Env: "production", DBDriver: "postgres"}, true, false, false},
		{"sql only", config.Config{Env: "development", DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"auto dev", config.Config{Env: "development", DBDriver: "postgres", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod refused", config.Config{Env: "prod", DBDriver: "postgres", DBSchemaMode: "auto"}, false, false, true},
		{"auto prod allowed", config.Config{Env: "prod", DBDriver: "postgres", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"sqlite always auto", config.Config{Env: "development", DBDriver: "sqlite", DBSchemaMode: "sql"}, false, true, false},
		{"unknown mode", config.Config{Env: "development", DBDriver: "postgres", DBSchemaMode: "magic"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestGetSchemaStatus_AutoOnly(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, &config.Config{Env: "test", DBDriver: "sqlite"})
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
	assert.Equal(t, SchemaModeHybrid, status.Mode)
}
