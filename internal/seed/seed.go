// Package seed loads a canteen fixture file (admins, employees, menu items)
// into the store through the regular services.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/employees"
	"github.com/nulzo/canteen-api/internal/items"
	"github.com/nulzo/canteen-api/internal/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type File struct {
	Admins    []Admin    `yaml:"admins"`
	Employees []Employee `yaml:"employees"`
	Items     []Item     `yaml:"items"`
}

type Admin struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Password string `yaml:"password"`
}

type Employee struct {
	Name        string `yaml:"name"`
	Email       string `yaml:"email"`
	PhoneNumber string `yaml:"phone_number"`
}

type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ServingDay  string `yaml:"serving_day"`
}

// Result lists what was written. Rows that already existed are skipped.
type Result struct {
	Admins         []string          `json:"admins"`
	EmployeeTokens map[string]string `json:"employee_tokens"`
	Items          int               `json:"items"`
	Skipped        int               `json:"skipped"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

type Seeder struct {
	logger    *zap.Logger
	auth      auth.Service
	employees employees.Service
	items     items.Service
}

func NewSeeder(logger *zap.Logger, authSvc auth.Service, employeeSvc employees.Service, itemSvc items.Service) *Seeder {
	return &Seeder{logger: logger, auth: authSvc, employees: employeeSvc, items: itemSvc}
}

// Apply writes f and issues a login token for every new employee.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{EmployeeTokens: map[string]string{}}

	for _, a := range f.Admins {
		_, err := s.auth.CreateAdmin(ctx, a.Email, a.FullName, a.Password)
		if errors.Is(err, store.ErrConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("admin %s: %w", a.Email, err)
		}
		res.Admins = append(res.Admins, a.Email)
	}

	for _, e := range f.Employees {
		emp, err := s.employees.Create(ctx, e.Name, e.Email, e.PhoneNumber)
		if errors.Is(err, store.ErrConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.Email, err)
		}

		token, err := s.auth.IssueToken(auth.RoleEmployee, emp.Email, emp.ID)
		if err != nil {
			return nil, err
		}
		res.EmployeeTokens[emp.Email] = token
	}

	for _, it := range f.Items {
		_, err := s.items.Add(ctx, it.Name, it.Description, it.ServingDay)
		if errors.Is(err, store.ErrConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.Name, err)
		}
		res.Items++
	}

	s.logger.Info("Seed applied",
		zap.Int("admins", len(res.Admins)),
		zap.Int("employees", len(res.EmployeeTokens)),
		zap.Int("items", res.Items),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
