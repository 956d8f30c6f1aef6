// Package model defines the user and preference records of the preferences example.
package model

// TableUser and TablePreferences are the table names created by the schema step.
const (
	TableUser        = "user"
	TablePreferences = "preferences"
)

// User is a row of the user table.
type User struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name"`
}

// TableName returns the table name for GORM.
func (User) TableName() string { return TableUser }

// Preference is a row of the preferences table.
type Preference struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	IDUser int64  `gorm:"column:id_user"`
	Name   string `gorm:"column:name"`
}

// TableName returns the table name for GORM.
func (Preference) TableName() string { return TablePreferences }

// UserPreference is one row of the user/preference join reported by the dump step.
// It includes parquet tags for the diagnostics export.
type UserPreference struct {
	ID       int64  `json:"id" gorm:"column:id" parquet:"name=id, type=INT64"`
	Username string `json:"username" gorm:"column:username" parquet:"name=username, type=BYTE_ARRAY, convertedtype=UTF8"`
	Pref     string `json:"pref" gorm:"column:pref" parquet:"name=pref, type=BYTE_ARRAY, convertedtype=UTF8"`
}
