package routing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	RoleDepartmentHead     = "department_head"
	RoleSeniorSpecialist   = "senior_specialist"
	RoleSpecialist         = "specialist"
	RoleAssociate          = "associate"
	RoleAssistant          = "assistant"
	RoleUrgentResponseTeam = "urgent_response_team"
)

// roleOrder fixes the iteration order over a department's staff so alternate
// selection is reproducible under a seeded random source.
var roleOrder = []string{
	RoleDepartmentHead,
	RoleSeniorSpecialist,
	RoleSpecialist,
	RoleAssociate,
	RoleAssistant,
	RoleUrgentResponseTeam,
}

// Directory maps departments to their staff by role.
type Directory struct {
	staff map[string]map[string]string
}

type directoryFile struct {
	Departments map[string]map[string]string `yaml:"departments"`
}

func defaultStaff(prefix string) map[string]string {
	return map[string]string{
		RoleDepartmentHead:     prefix + ".head@example.com",
		RoleSeniorSpecialist:   prefix + ".senior@example.com",
		RoleSpecialist:         prefix + ".specialist@example.com",
		RoleAssociate:          prefix + ".associate@example.com",
		RoleAssistant:          prefix + ".assistant@example.com",
		RoleUrgentResponseTeam: prefix + ".urgent@example.com",
	}
}

// DefaultDirectory returns the built-in staff table.
func DefaultDirectory() *Directory {
	return &Directory{staff: map[string]map[string]string{
		"Vendor Registration": defaultStaff("registration"),
		"Finance":             defaultStaff("finance"),
		"Accounts Payable":    defaultStaff("ap"),
		"Legal":               defaultStaff("legal"),
		"Contract Management": defaultStaff("contracts"),
		"Procurement":         defaultStaff("procurement"),
		"Technical Support":   defaultStaff("support"),
		"Logistics":           defaultStaff("logistics"),
		"Vendor Relations":    defaultStaff("relations"),
	}}
}

// LoadDirectory reads a YAML staff file and merges it over the defaults.
// Listed roles replace the built-in entry; unlisted departments keep theirs.
func LoadDirectory(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staff directory: %w", err)
	}
	var file directoryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse staff directory: %w", err)
	}

	dir := DefaultDirectory()
	for department, roles := range file.Departments {
		existing, ok := dir.staff[department]
		if !ok {
			existing = make(map[string]string)
			dir.staff[department] = existing
		}
		for role, email := range roles {
			existing[role] = email
		}
	}
	return dir, nil
}

// Lookup returns the staff member holding role in department.
func (d *Directory) Lookup(department, role string) (string, bool) {
	roles, ok := d.staff[department]
	if !ok {
		return "", false
	}
	email, ok := roles[role]
	return email, ok
}

// Has reports whether the department exists in the directory.
func (d *Directory) Has(department string) bool {
	_, ok := d.staff[department]
	return ok
}

// Staff returns the department's members in role order.
func (d *Directory) Staff(department string) []string {
	roles, ok := d.staff[department]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(roles))
	for _, role := range roleOrder {
		if email, ok := roles[role]; ok {
			members = append(members, email)
		}
	}
	return members
}
