package models

// All lists every entity for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Signal{},
		&Vote{},
		&Comment{},
		&Report{},
		&SubjectClaim{},
		&Invite{},
		&AuditLog{},
		&AppSetting{},
		&SystemLog{},
	}
}
