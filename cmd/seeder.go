package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raffops/auth-management/internal/auth"
	"github.com/raffops/auth-management/internal/core/datamodel/identity"
)

// seedCmd bootstraps the reserved identities: the wildcard permission, the
// administrators group holding it, and an initial admin account.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the bootstrap admin identities",
	Long:  `Seed the database with the admins group, the wildcard permission and an initial administrator account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"user_groups", "group_permissions", "users", "groups", "permissions"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		var wildcard identity.Permission
		err = db.Where("name = ?", auth.WildcardPermission).First(&wildcard).Error
		if err != nil {
			wildcard = identity.Permission{Name: auth.WildcardPermission}
			if err := db.Create(&wildcard).Error; err != nil {
				log.Fatalf("failed to seed wildcard permission: %v", err)
			}
			fmt.Println("Seeded permission:", wildcard.Name)
		}

		var admins identity.Group
		err = db.Preload("Permissions").Where("name = ?", auth.AdminsGroup).First(&admins).Error
		if err != nil {
			admins = identity.Group{Name: auth.AdminsGroup, Permissions: []identity.Permission{wildcard}}
			if err := db.Create(&admins).Error; err != nil {
				log.Fatalf("failed to seed admins group: %v", err)
			}
			fmt.Println("Seeded group:", admins.Name)
		} else if len(admins.Permissions) == 0 {
			if err := db.Model(&admins).Association("Permissions").Append(&wildcard); err != nil {
				log.Fatalf("failed to link wildcard permission: %v", err)
			}
		}

		var admin identity.User
		err = db.Where("username = ?", "admin").First(&admin).Error
		if err == nil {
			fmt.Println("Admin user already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("admin"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash admin password: %v", err)
		}

		admin = identity.User{
			Username:     "admin",
			Name:         "Administrator",
			PasswordHash: string(hash),
			Email:        "admin@localhost",
			IsActive:     true,
			Groups:       []identity.Group{admins},
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}

		fmt.Println("Seeded admin user: admin (change the default password)")
	},
}
