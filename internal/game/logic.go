package game

// OwningTeams returns the distinct non-neutral owners, in spawner order.
func OwningTeams(spawners []*Spawner) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, s := range spawners {
		if s.IsNeutral() || seen[s.Team] {
			continue
		}
		seen[s.Team] = true
		teams = append(teams, s.Team)
	}
	return teams
}

// CheckVictory returns the winner when exactly one team still owns
// territory. Zero or several owners mean the match goes on.
func CheckVictory(spawners []*Spawner) (string, bool) {
	teams := OwningTeams(spawners)
	if len(teams) != 1 {
		return "", false
	}
	return teams[0], true
}
