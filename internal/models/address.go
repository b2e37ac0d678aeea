package models

import "github.com/gocql/gocql"

type Address struct {
	ID        gocql.UUID `json:"id" db:"address_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Line1     string     `json:"line1" db:"line1"`
	City      string     `json:"city" db:"city"`
	State     string     `json:"state" db:"state"`
	Pincode   string     `json:"pincode" db:"pincode"`
	IsDefault bool       `json:"is_default" db:"is_default"`
}
