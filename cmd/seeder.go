package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/staff-management/internal/accessrequest"
	"github.com/frahmantamala/staff-management/internal/auth"
	"github.com/frahmantamala/staff-management/internal/carpass"
	settingsDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/settings"
	userDatamodel "github.com/frahmantamala/staff-management/internal/core/datamodel/user"
	"github.com/frahmantamala/staff-management/internal/idrequest"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with roles, permissions and reference data",
	Long:  `Seed the database with the default roles, their permissions, an administrator account and reference settings.`,
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

		gdb, err := initGorm(db.DB, cfg.IsProduction())
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := gdb.Exec("TRUNCATE user_roles, role_permissions, permissions, roles, organs, departments, locations, countries RESTART IDENTITY CASCADE").Error; err != nil {
				log.Fatalf("failed to clear seeded tables: %v", err)
			}
			fmt.Println("Cleared roles, permissions and reference settings")
		}

		err = gdb.Transaction(func(tx *gorm.DB) error {
			perms, err := seedPermissions(tx)
			if err != nil {
				return err
			}
			roles, err := seedRoles(tx, perms)
			if err != nil {
				return err
			}
			if err := seedAdmin(tx, roles[auth.RoleAdmin], cfg.Security.BCryptCost); err != nil {
				return err
			}
			return seedSettings(tx)
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seed completed")
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@staff.local", "administrator email")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "password", "administrator password")
}

var requestEntities = []string{carpass.Entity, idrequest.Entity, accessrequest.Entity}

// permissionSet lists every tuple the gate can be asked about.
func permissionSet() []auth.Permission {
	var perms []auth.Permission
	for _, action := range []string{auth.ActionCreate, auth.ActionRead, auth.ActionUpdate, auth.ActionDelete} {
		perms = append(perms, auth.Permission{Entity: "incident", Action: action, Access: []string{auth.AccessAny}})
	}
	for _, entity := range requestEntities {
		for _, action := range []string{auth.ActionCreate, auth.ActionRead, auth.ActionUpdate, auth.ActionDelete} {
			for _, access := range []string{auth.AccessOwn, auth.AccessAny} {
				perms = append(perms, auth.Permission{Entity: entity, Action: action, Access: []string{access}})
			}
		}
		perms = append(perms, auth.Permission{Entity: entity, Action: auth.ActionApprove, Access: []string{auth.AccessAny}})
	}
	return perms
}

func seedPermissions(tx *gorm.DB) (map[string]userDatamodel.Permission, error) {
	out := make(map[string]userDatamodel.Permission)
	for _, p := range permissionSet() {
		row := userDatamodel.Permission{Entity: p.Entity, Action: p.Action, Access: p.Access[0]}
		err := tx.Where(&row).
			Attrs(userDatamodel.Permission{Description: fmt.Sprintf("%s %s (%s)", p.Action, p.Entity, p.Access[0])}).
			FirstOrCreate(&row).Error
		if err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", p, err)
		}
		out[p.String()] = row
	}
	fmt.Printf("Seeded %d permissions\n", len(out))
	return out, nil
}

// roleGrants decides which permissions each default role starts with.
var roleGrants = map[string]func(auth.Permission) bool{
	auth.RoleAdmin: func(auth.Permission) bool { return true },
	auth.RoleHR: func(p auth.Permission) bool {
		if p.Entity == "incident" {
			return p.Action != auth.ActionDelete
		}
		if p.Access[0] == auth.AccessAny {
			return p.Action == auth.ActionRead || p.Action == auth.ActionApprove
		}
		return p.Action != auth.ActionRead
	},
	auth.RoleUser: func(p auth.Permission) bool {
		return p.Entity != "incident" && p.Access[0] == auth.AccessOwn
	},
}

var roleDescriptions = map[string]string{
	auth.RoleAdmin: "Full administrator",
	auth.RoleHR:    "Human resources staff",
	auth.RoleUser:  "Regular staff member",
}

func seedRoles(tx *gorm.DB, perms map[string]userDatamodel.Permission) (map[string]userDatamodel.Role, error) {
	out := make(map[string]userDatamodel.Role)
	for _, name := range []string{auth.RoleAdmin, auth.RoleHR, auth.RoleUser} {
		role := userDatamodel.Role{Name: name}
		if err := tx.Where(&role).Attrs(userDatamodel.Role{Description: roleDescriptions[name]}).FirstOrCreate(&role).Error; err != nil {
			return nil, fmt.Errorf("seed role %s: %w", name, err)
		}

		var granted []userDatamodel.Permission
		for _, p := range permissionSet() {
			if roleGrants[name](p) {
				granted = append(granted, perms[p.String()])
			}
		}
		if err := tx.Model(&role).Association("Permissions").Replace(granted); err != nil {
			return nil, fmt.Errorf("grant permissions to %s: %w", name, err)
		}
		fmt.Printf("Seeded role %s with %d permissions\n", name, len(granted))
		out[name] = role
	}
	return out, nil
}

func seedAdmin(tx *gorm.DB, adminRole userDatamodel.Role, cost int) error {
	var admin userDatamodel.User
	err := tx.Where("email = ?", seedAdminEmail).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(seedAdminPassword), cost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin = userDatamodel.User{Email: seedAdminEmail, Name: "Administrator", PasswordHash: string(hash), IsActive: true}
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		fmt.Println("Seeded admin user:", seedAdminEmail)
	} else if err != nil {
		return fmt.Errorf("lookup admin user: %w", err)
	} else {
		fmt.Println("admin user already exists; will ensure role")
	}

	if err := tx.Model(&admin).Association("Roles").Append(&adminRole); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	return nil
}

func seedSettings(tx *gorm.DB) error {
	organs := []settingsDatamodel.Organ{
		{Name: "Executive Board", Description: "Company leadership"},
		{Name: "Operations", Description: "Day to day operations"},
	}
	for i := range organs {
		if err := tx.Where("name = ?", organs[i].Name).FirstOrCreate(&organs[i]).Error; err != nil {
			return fmt.Errorf("seed organ %s: %w", organs[i].Name, err)
		}
	}

	departments := []settingsDatamodel.Department{
		{Name: "Human Resources", OrganID: &organs[0].ID},
		{Name: "Security", OrganID: &organs[1].ID},
		{Name: "Facilities", OrganID: &organs[1].ID},
	}
	for i := range departments {
		if err := tx.Where("name = ?", departments[i].Name).FirstOrCreate(&departments[i]).Error; err != nil {
			return fmt.Errorf("seed department %s: %w", departments[i].Name, err)
		}
	}

	for _, l := range []settingsDatamodel.Location{{Name: "Head Office"}, {Name: "Warehouse"}, {Name: "Main Gate"}} {
		if err := tx.Where("name = ?", l.Name).FirstOrCreate(&l).Error; err != nil {
			return fmt.Errorf("seed location %s: %w", l.Name, err)
		}
	}

	for _, c := range []settingsDatamodel.Country{{Name: "Indonesia", Code: "ID"}, {Name: "Singapore", Code: "SG"}, {Name: "Malaysia", Code: "MY"}} {
		if err := tx.Where("name = ?", c.Name).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed country %s: %w", c.Name, err)
		}
	}

	fmt.Println("Reference settings seeded successfully")
	return nil
}
