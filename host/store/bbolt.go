package store

import (
	"encoding/json"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"duepwm/host/config"
)

type BBolt struct {
	db *bbolt.DB
}

const (
	bboltRootBucket = "duepwm"
	bboltPlanBucket = "plans" // child of duepwm

	bboltDefaultPlanKey = "default-plan"
)

// OpenBBolt opens a bbolt database at the given path and creates the
// needed buckets if they don't exist.
func OpenBBolt(path string, mode os.FileMode, options *bbolt.Options) (Store, error) {
	db, err := bbolt.Open(path, mode, options)
	if err != nil {
		return nil, fmt.Errorf("unable to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(bboltRootBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltRootBucket, err)
		}
		if _, err := root.CreateBucketIfNotExists([]byte(bboltPlanBucket)); err != nil {
			return fmt.Errorf("unable to create bucket %q: %w", bboltPlanBucket, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create bbolt buckets: %w", err)
	}

	return &BBolt{db: db}, nil
}

func (b *BBolt) Close() error {
	return b.db.Close()
}

func (b *BBolt) Plan(name string) (*config.Plan, error) {
	var plan config.Plan
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket)).Bucket([]byte(bboltPlanBucket))

		planJSON := bucket.Get([]byte(name))
		if planJSON == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(planJSON, &plan); err != nil {
			return fmt.Errorf("unable to unmarshal plan JSON: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get plan %q: %w", name, err)
	}

	return &plan, nil
}

func (b *BBolt) ListPlans() ([]string, error) {
	names := make([]string, 0)

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket)).Bucket([]byte(bboltPlanBucket))
		return bucket.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list plans: %w", err)
	}

	return names, nil
}

func (b *BBolt) PutPlan(name string, p *config.Plan) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		planJSON, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("unable to marshal plan: %w", err)
		}

		bucket := tx.Bucket([]byte(bboltRootBucket)).Bucket([]byte(bboltPlanBucket))
		if err := bucket.Put([]byte(name), planJSON); err != nil {
			return fmt.Errorf("unable to put plan %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to update plan: %w", err)
	}

	return nil
}

func (b *BBolt) DeletePlan(name string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket)).Bucket([]byte(bboltPlanBucket))
		return bucket.Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("unable to delete plan %q: %w", name, err)
	}

	return nil
}

func (b *BBolt) DefaultPlan() (string, error) {
	var def string

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket))
		def = string(bucket.Get([]byte(bboltDefaultPlanKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to get default plan: %w", err)
	}

	return def, nil
}

func (b *BBolt) PutDefaultPlan(name string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bboltRootBucket))
		return bucket.Put([]byte(bboltDefaultPlanKey), []byte(name))
	})
	if err != nil {
		return fmt.Errorf("unable to put default plan: %w", err)
	}

	return nil
}
