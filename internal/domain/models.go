package domain

import "time"

// Outage is the record of one resolved outage episode.
type Outage struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	Downtime        string    `json:"downtime"` // H:MM:SS
	DowntimeSeconds int64     `json:"downtime_seconds"`
	Failures        int       `json:"failures"`
	ResetAttempts   int       `json:"reset_attempts"`
	ResetsIssued    int       `json:"resets_issued"`
}

// Status is a point-in-time view of the running watchdog.
type Status struct {
	State          string     `json:"state"`
	Since          time.Time  `json:"since"`
	LastProbeAt    *time.Time `json:"last_probe_at,omitempty"`
	LastProbeUp    bool       `json:"last_probe_up"`
	Probes         uint64     `json:"probes"`
	Outages        int        `json:"outages"`
	ResetAttempts  int        `json:"reset_attempts"`
	ResetsIssued   int        `json:"resets_issued"`
	LastResetAt    *time.Time `json:"last_reset_at,omitempty"`
	LastResetError string     `json:"last_reset_error,omitempty"`
}
