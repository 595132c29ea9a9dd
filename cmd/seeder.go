package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	userPostgres "github.com/frahmantamala/employee-management/internal/user/postgres"
	"github.com/spf13/cobra"
)

func strPtr(s string) *string { return &s }

var sampleEmployees = []userDatamodel.User{
	{FirstName: "Fadhil", LastName: "Rahman", Email: "fadhil@mail.com", PhoneNumber: strPtr("+62-811-0001"), Department: "Engineering", Role: "ADMIN"},
	{FirstName: "Padil", LastName: "Pratama", Email: "padil@mail.com", PhoneNumber: strPtr("+62-811-0002"), Department: "Human Resources", Role: "MANAGER"},
	{FirstName: "Sari", LastName: "Wulandari", Email: "sari@mail.com", Department: "Finance", Role: "EMPLOYEE"},
	{FirstName: "Budi", LastName: "Santoso", Email: "budi@mail.com", PhoneNumber: strPtr("+62-811-0004"), Department: "Engineering", Role: "EMPLOYEE"},
}

// seeding writes through the repository directly so no notification mail
// is sent for sample data.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample employees",
	Long:  `Seed the database with sample employees for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, cfg.Env)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		repo := userPostgres.NewUserRepository(gdb)

		if clearData {
			if err := repo.DeleteAll(ctx); err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing users")
		}

		existing, err := repo.GetAll(ctx)
		if err != nil {
			log.Fatalf("failed to list users: %v", err)
		}
		known := make(map[string]bool, len(existing))
		for _, u := range existing {
			known[u.Email] = true
		}

		now := time.Now()
		for _, sample := range sampleEmployees {
			if known[sample.Email] {
				fmt.Println("employee already exists:", sample.Email)
				continue
			}
			u := sample
			u.CreatedAt = now
			u.UpdatedAt = now
			u.Active = true
			if err := repo.Save(ctx, &u); err != nil {
				log.Fatalf("failed to insert employee %s: %v", sample.Email, err)
			}
			fmt.Printf("Seeded employee %d: %s\n", u.ID, u.Email)
		}

		fmt.Println("Employees seeded successfully")
	},
}
