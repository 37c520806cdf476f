// Command admin runs maintenance tasks against the platform database
// without starting the HTTP server.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"coursehub/backend/config"
	"coursehub/backend/models"
	"coursehub/backend/repository"
	"coursehub/backend/services"
	"coursehub/backend/utils"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "admin",
		Usage: "online courses platform maintenance",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create or update database tables",
				Action: migrate,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin account or promote an existing user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: createAdmin,
			},
			{
				Name:  "backup",
				Usage: "write a backup archive to BACKUP_DIR",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "data", Value: true, Usage: "include a pg_dump of the database"},
					&cli.BoolFlag{Name: "files", Value: true, Usage: "include the upload directory"},
				},
				Action: backup,
			},
			{
				Name:      "restore",
				Usage:     "restore a backup archive from BACKUP_DIR",
				ArgsUsage: "<backup_path>",
				Action:    restore,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := utils.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(c *cli.Context) error {
	// InitDB runs AutoMigrate
	if _, _, err := openDB(); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

func createAdmin(c *cli.Context) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(c.String("email")))
	if err := utils.ValidateStruct(struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}{email, c.String("password")}); err != nil {
		return err
	}

	hash, err := utils.HashPassword(c.String("password"))
	if err != nil {
		return err
	}

	user, err := repository.FindUserByEmail(db, email)
	switch {
	case err == nil:
		err = db.Model(user).Updates(map[string]interface{}{
			"role":          models.RoleAdmin,
			"is_active":     true,
			"password_hash": hash,
		}).Error
		if err != nil {
			return err
		}
		fmt.Printf("user %s promoted to admin\n", email)
		return nil
	case !repository.IsNotFound(err):
		return err
	}

	user = &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    c.String("first-name"),
		LastName:     c.String("last-name"),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		return err
	}
	fmt.Printf("admin %s created (id %d)\n", email, user.ID)
	return nil
}

func backup(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	svc := services.NewBackupService(cfg, utils.InitLogger(utils.LoggerConfig{Mode: cfg.LogMode}))
	path, err := svc.Backup(c.Context, c.Bool("data"), c.Bool("files"))
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func restore(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: admin restore <backup_path>")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	svc := services.NewBackupService(cfg, utils.InitLogger(utils.LoggerConfig{Mode: cfg.LogMode}))
	if err := svc.Restore(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Println("restore complete")
	return nil
}
