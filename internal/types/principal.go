package types

// Principal is the acting identity handed to every service call.
type Principal struct {
	ID    uint
	Name  string
	Email string
	Role  Role
}

func (p Principal) IsAdmin() bool          { return p.Role == RoleAdmin }
func (p Principal) IsCitizen() bool        { return p.Role == RoleCitizen }
func (p Principal) IsRescueTeam() bool     { return p.Role == RoleRescueTeam }
func (p Principal) IsAssessmentTeam() bool { return p.Role == RoleAssessmentTeam }
