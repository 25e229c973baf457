package models

import "time"

// Profile: данные администратора, которые хранятся у нас. Логин, пароль и сама
// учётная запись остаются у внешнего провайдера идентификации.
type Profile struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const RoleAdmin = "admin"
