// Package actorid defines the identity every actor in the runtime carries.
package actorid

import "github.com/pborman/uuid"

// ID is the pair (name, instance_uid) that addresses one actor process.
// Two processes may share Name but never a full ID: UID is generated
// fresh at construction and is globally unique for the process lifetime.
type ID struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// New mints a fresh ID for name, generating a new instance UID.
func New(name string) ID {
	return ID{Name: name, UID: uuid.NewRandom().String()}
}

// String renders "name/uid", used in log lines and error messages.
func (id ID) String() string {
	return id.Name + "/" + id.UID
}

// Zero reports whether id is the unset value.
func (id ID) Zero() bool {
	return id.Name == "" && id.UID == ""
}
