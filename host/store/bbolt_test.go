package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"duepwm/host/config"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenBBolt(filepath.Join(t.TempDir(), "plans.db"), 0o600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPlan() *config.Plan {
	plan, err := config.Load([]byte(`{
		"clock_a": {"frequency_hz": 100000},
		"channels": [{"channel": 0, "clock": "a", "period": 100, "duty_cycle": 25}]
	}`))
	if err != nil {
		panic(err)
	}
	return plan
}

func TestPlanRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := testPlan()

	if err := s.PutPlan("servo", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Plan("servo")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stored plan differs:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestPlanNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Plan("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndDeletePlans(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{"fan", "led", "servo"} {
		if err := s.PutPlan(name, testPlan()); err != nil {
			t.Fatal(err)
		}
	}
	names, err := s.ListPlans()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"fan", "led", "servo"}) {
		t.Errorf("names = %v", names)
	}

	if err := s.DeletePlan("led"); err != nil {
		t.Fatal(err)
	}
	names, err = s.ListPlans()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"fan", "servo"}) {
		t.Errorf("names after delete = %v", names)
	}
}

func TestDefaultPlan(t *testing.T) {
	s := openTestStore(t)

	def, err := s.DefaultPlan()
	if err != nil {
		t.Fatal(err)
	}
	if def != "" {
		t.Errorf("default = %q before any put", def)
	}

	if err := s.PutDefaultPlan("servo"); err != nil {
		t.Fatal(err)
	}
	def, err = s.DefaultPlan()
	if err != nil {
		t.Fatal(err)
	}
	if def != "servo" {
		t.Errorf("default = %q, want servo", def)
	}
}
