package session

import "github.com/BioHazard786/eggcombat/internal/roomcode"

// State is the connection lifecycle of the local session.
type State int

const (
	StateIdle State = iota
	StateHostingWaitOpen
	StateClientConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHostingWaitOpen:
		return "HOSTING_WAIT_OPEN"
	case StateClientConnecting:
		return "CLIENT_CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Pending reports whether the session is waiting on the transport.
func (s State) Pending() bool {
	return s == StateHostingWaitOpen || s == StateClientConnecting
}

// Role is fixed when a session starts.
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "HOST"
	case RoleClient:
		return "CLIENT"
	default:
		return "NONE"
	}
}

// Update is published on every state change.
type Update struct {
	State State
	Role  Role
	Code  roomcode.Code
	Err   error
}
