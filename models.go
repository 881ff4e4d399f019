package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Admin is the administrator model. Administrators live in their own table,
// structurally separate from portal users.
type Admin struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// User is the portal user model covering students, parents, and teachers.
// Students and parents reference the Student record they act for.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	StudentID      *uuid.UUID `bun:"student_id,nullzero,type:uuid" json:"student_id,omitempty"`
	Student        *Student   `bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	IsActive       bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	LastLogin      *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RequiresStudentRef reports whether this user's role must reference a
// Student record.
func (u *User) RequiresStudentRef() bool {
	return u.Role == RoleStudent || u.Role == RoleParent
}

// Student is the enrollment record that carries the PIN credential. Academic
// fields (class, results) belong to collaborating packages; only the identity
// and credential surface lives here.
type Student struct {
	bun.BaseModel  `bun:"table:students,alias:std"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string     `bun:"name,notnull" json:"name,omitempty"`
	RegNumber      string     `bun:"reg_number,notnull,unique" json:"reg_number,omitempty"`
	ClassLevel     string     `bun:"class_level" json:"class_level,omitempty"`
	ParentName     string     `bun:"parent_name" json:"parent_name,omitempty"`
	ParentPhone    string     `bun:"parent_phone" json:"parent_phone,omitempty"`
	ParentEmail    string     `bun:"parent_email" json:"parent_email,omitempty"`
	PINHash        string     `bun:"pin_hash" json:"-"`
	HasPinSet      bool       `bun:"has_pin_set,notnull,default:false" json:"has_pin_set"`
	PinLastChanged *time.Time `bun:"pin_last_changed,nullzero" json:"pin_last_changed,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PinStatus is the admin-facing view of a student's PIN credential state.
type PinStatus struct {
	StudentID      uuid.UUID  `json:"student_id"`
	RegNumber      string     `json:"reg_number"`
	HasPinSet      bool       `json:"has_pin_set"`
	PinLastChanged *time.Time `json:"pin_last_changed,omitempty"`
}
