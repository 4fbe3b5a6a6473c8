package data

import (
	"context"
	"time"

	"github.com/pitabwire/util"
	"github.com/rs/xid"
	"gorm.io/gorm"
)

type BaseModelI interface {
	GetID() string
	GetVersion() uint
}

// IDGenerator is implemented by models able to assign their own primary key.
type IDGenerator interface {
	GenID(ctx context.Context)
}

// BaseModel base table struct to be extended by master and translation models.
type BaseModel struct {
	ID         string `gorm:"type:varchar(50);primary_key"`
	CreatedAt  time.Time
	ModifiedAt time.Time
	Version    uint           `gorm:"DEFAULT 0"`
	DeletedAt  gorm.DeletedAt `sql:"index"`
}

func (model *BaseModel) GetID() string {
	return model.ID
}

// GenID creates a new id for model if its not existent.
func (model *BaseModel) GenID(_ context.Context) {
	if model.ID == "" {
		model.ID = util.IDString()
	}
}

// ValidXID Validates that the supplied string is an xid.
func (model *BaseModel) ValidXID(id string) bool {
	return ValidID(id)
}

func (model *BaseModel) GetModifiedAt() time.Time {
	return model.ModifiedAt
}

func (model *BaseModel) GetVersion() uint {
	return model.Version
}

// BeforeSave Ensures we update a models time stamps.
func (model *BaseModel) BeforeSave(db *gorm.DB) error {
	return model.BeforeCreate(db)
}

func (model *BaseModel) BeforeCreate(db *gorm.DB) error {
	if model.Version <= 0 {
		model.CreatedAt = time.Now()
		model.ModifiedAt = time.Now()
		model.Version = 1
	}

	model.GenID(db.Statement.Context)
	return nil
}

// BeforeUpdate Updates time stamp every time we update a model.
func (model *BaseModel) BeforeUpdate(_ *gorm.DB) error {
	model.ModifiedAt = time.Now()
	model.Version++
	return nil
}

// ValidID reports whether id is a well formed xid as produced by GenID.
func ValidID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}

// Translation is implemented by every per-language row of a translatable model.
type Translation interface {
	BaseModelI
	GetMasterID() string
	SetMasterID(id string)
	GetLanguageCode() string
	SetLanguageCode(code string)
}

// TranslationModel base table struct for the per-language rows of a master model.
// The owning master declares a has-many relation on MasterID.
type TranslationModel struct {
	BaseModel
	MasterID     string `gorm:"type:varchar(50);uniqueIndex:,composite:master_language"`
	LanguageCode string `gorm:"type:varchar(15);index;uniqueIndex:,composite:master_language"`
}

func (model *TranslationModel) GetMasterID() string {
	return model.MasterID
}

func (model *TranslationModel) SetMasterID(id string) {
	model.MasterID = id
}

func (model *TranslationModel) GetLanguageCode() string {
	return model.LanguageCode
}

func (model *TranslationModel) SetLanguageCode(code string) {
	model.LanguageCode = code
}

// VerboseNamer overrides the human readable name derived from a model's type name.
type VerboseNamer interface {
	VerboseName() string
}
