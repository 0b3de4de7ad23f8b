package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// Designation drives the prefix of the generated user code: Doctor accounts
// get doctorId####, Staff get staffId####, everything else userId####.
type Designation string

const (
	DesignationDoctor Designation = "Doctor"
	DesignationStaff  Designation = "Staff"
)

func (d Designation) CodePrefix() string {
	switch d {
	case DesignationDoctor:
		return "doctorId"
	case DesignationStaff:
		return "staffId"
	}
	return "userId"
}

type User struct {
	UserID       string    `bson:"userId" json:"userId"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email"`
	Phone        string    `bson:"phone,omitempty" json:"phone"`
	PasswordHash string    `bson:"password" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	Designation  string    `bson:"designation" json:"designation"`
	DoctorDegree string    `bson:"doctorDegree,omitempty" json:"doctorDegree,omitempty"`
	ClinicIDs    []string  `bson:"clinicId,omitempty" json:"clinicId,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile is the subset of user fields joined into patient responses
// and the CSV export.
type PublicProfile struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Designation  string `json:"designation"`
	DoctorDegree string `json:"doctorDegree,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		UserID:       u.UserID,
		Name:         u.Name,
		Phone:        u.Phone,
		Email:        u.Email,
		Designation:  u.Designation,
		DoctorDegree: u.DoctorDegree,
	}
}

// FileRef points at an uploaded asset on the external media provider.
// PublicID is what delete operations address; SecureURL is what clients
// render.
type FileRef struct {
	SecureURL string `bson:"secure_url" json:"secure_url"`
	PublicID  string `bson:"public_id" json:"public_id"`
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID      string `json:"sub"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Designation string `json:"designation,omitempty"`
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)

type AuditLog struct {
	OccurredAt   time.Time   `bson:"occurredAt" json:"occurredAt"`
	UserID       string      `bson:"userId" json:"userId"`
	UserRole     Role        `bson:"userRole" json:"userRole"`
	IPAddress    string      `bson:"ipAddress" json:"ipAddress"`
	Action       AuditAction `bson:"action" json:"action"`
	ResourceType string      `bson:"resourceType" json:"resourceType"`
	ResourceID   string      `bson:"resourceId" json:"resourceId"`
	RequestID    string      `bson:"requestId" json:"requestId"`
	Changes      string      `bson:"changes,omitempty" json:"changes,omitempty"`
}
