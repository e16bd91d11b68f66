package models

import "time"

// UserSession is one authenticated device. Privileged is sticky: once set it stays set until
// the row is deleted.
type UserSession struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"userId"`
	IP         string     `db:"ip" json:"ip"`
	DeviceInfo string     `db:"device_info" json:"deviceInfo"`
	Address    string     `db:"address" json:"address"`
	Privileged bool       `db:"privileged" json:"privileged"`
	StartedOn  time.Time  `db:"started_on" json:"startedOn"`
	RenewedOn  *time.Time `db:"renewed_on" json:"renewedOn,omitempty"`
}

// LastSeen returns RenewedOn when set, otherwise StartedOn.
func (s *UserSession) LastSeen() time.Time {
	if s.RenewedOn != nil {
		return *s.RenewedOn
	}
	return s.StartedOn
}
