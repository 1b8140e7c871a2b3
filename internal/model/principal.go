package model

import "time"

// PrincipalKind distinguishes the two disjoint identity namespaces.
type PrincipalKind string

const (
	KindAdmin  PrincipalKind = "admin"
	KindClient PrincipalKind = "client"
)

func (k PrincipalKind) Valid() bool {
	return k == KindAdmin || k == KindClient
}

type AdminRole string

const (
	AdminRoleAdmin  AdminRole = "admin"
	AdminRoleEditor AdminRole = "editor"
	AdminRoleViewer AdminRole = "viewer"
)

func (r AdminRole) Valid() bool {
	switch r {
	case AdminRoleAdmin, AdminRoleEditor, AdminRoleViewer:
		return true
	}
	return false
}

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

func (s ClientStatus) Valid() bool {
	return s == ClientStatusActive || s == ClientStatusInactive
}

// Admin: сотрудник back-office. Email уникален только в пределах таблицы admins.
type Admin struct {
	ID           string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(320);not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(72);not null" json:"-"`
	Role         AdminRole `gorm:"type:varchar(16);not null" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client: пользователь клиентского портала; создаётся администратором.
type Client struct {
	ID           string       `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Email        string       `gorm:"type:varchar(320);not null" json:"email"`
	PasswordHash string       `gorm:"type:varchar(72);not null" json:"-"`
	Company      string       `gorm:"type:varchar(255)" json:"company,omitempty"`
	Phone        string       `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Status       ClientStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedBy    string       `gorm:"type:varchar(26);index" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the kind-agnostic view of an authenticated Admin or Client.
type Principal struct {
	ID    string        `json:"id"`
	Kind  PrincipalKind `json:"role"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
}

func (a *Admin) Principal() Principal {
	return Principal{ID: a.ID, Kind: KindAdmin, Email: a.Email, Name: a.Name}
}

func (c *Client) Principal() Principal {
	return Principal{ID: c.ID, Kind: KindClient, Email: c.Email, Name: c.Name}
}
