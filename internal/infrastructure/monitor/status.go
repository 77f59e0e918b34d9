package monitor

import "time"

type Status struct {
	PostgreSQL      bool      `json:"postgresql"`
	Redis           bool      `json:"redis"`
	Journal         bool      `json:"journal"`
	PendingCascades int       `json:"pending_cascades"`
	LastCheck       time.Time `json:"last_check"`
}
