// Package store persists named channel plans so pwmctl can reprogram a
// board without carrying JSON files around.
package store

import (
	"errors"
	"io"

	"duepwm/host/config"
)

// ErrNotFound means no plan is stored under the requested name.
var ErrNotFound = errors.New("plan not found")

// Store is a persistent engine for channel plans.
type Store interface {
	Plan(name string) (*config.Plan, error)
	ListPlans() ([]string, error)
	PutPlan(name string, p *config.Plan) error
	DeletePlan(name string) error

	DefaultPlan() (string, error)
	PutDefaultPlan(name string) error

	io.Closer
}
