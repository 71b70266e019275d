package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/auth"
	"github.com/scrimspace/scrim-server/internals/communities"
	"github.com/scrimspace/scrim-server/internals/notification"
	"github.com/scrimspace/scrim-server/internals/registration"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/internals/slots"
	"github.com/scrimspace/scrim-server/internals/teams"
)

func Setup(dsn string) (*gorm.DB, error) {
	g, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Migrate creates every table and, critically, the unique indexes the
// allocator and registration flow rely on for race arbitration.
func Migrate(g *gorm.DB) error {
	return g.AutoMigrate(
		&auth.Users{},
		&communities.Community{},
		&communities.Ban{},
		&scrims.Scrim{},
		&teams.Team{},
		&teams.TeamMember{},
		&registration.RegisteredTeam{},
		&slots.ReservedSlot{},
		&slots.AssignedSlot{},
		&notification.Notification{},
	)
}
