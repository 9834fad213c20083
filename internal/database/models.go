package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/profile-switcher/internal/database/migrations"
)

// ProfileSwitch is the stored form of a profile switch record.
// Blocks are copied into JSON columns so catalogue edits never alter history.
type ProfileSwitch struct {
	gorm.Model
	RecordID          string `gorm:"uniqueIndex;size:36"`
	Timestamp         int64  `gorm:"column:switch_timestamp;uniqueIndex"` // Epoch milliseconds
	ProfileName       string
	GlucoseUnit       string
	Percentage        int
	TimeShiftHours    int
	DurationMillis    int64 `gorm:"index"` // 0 = permanent
	BasalBlocks       datatypes.JSON
	ISFBlocks         datatypes.JSON
	ICBlocks          datatypes.JSON
	TargetBlocks      datatypes.JSON
	InsulinLabel      string
	InsulinEndMillis  int64
	InsulinPeakMillis int64
}

// ProfileDefinition is the stored form of a catalogue entry
type ProfileDefinition struct {
	gorm.Model
	UUID         string `gorm:"uniqueIndex;size:36"`
	Name         string `gorm:"uniqueIndex"`
	GlucoseUnit  string
	DIA          float64
	BasalBlocks  datatypes.JSON
	ISFBlocks    datatypes.JSON
	ICBlocks     datatypes.JSON
	TargetBlocks datatypes.JSON
}

func init() {
	migrations.Register("0001_create_profile_switches", func(db *gorm.DB) error {
		return db.AutoMigrate(&ProfileSwitch{})
	}, func(db *gorm.DB) error {
		return db.Migrator().DropTable(&ProfileSwitch{})
	})

	migrations.Register("0002_create_profile_definitions", func(db *gorm.DB) error {
		return db.AutoMigrate(&ProfileDefinition{})
	}, func(db *gorm.DB) error {
		return db.Migrator().DropTable(&ProfileDefinition{})
	})
}
